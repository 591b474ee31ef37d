package dbcapabilities

import "strings"

// DatabaseID is the canonical identifier for a storage engine supported by the
// adapter layer. Use these constants to look up capability information.
type DatabaseID string

const (
	// Relational SQL
	PostgreSQL DatabaseID = "postgres"
	MySQL      DatabaseID = "mysql"
	SQLite     DatabaseID = "sqlite"

	// Document
	MongoDB DatabaseID = "mongodb"

	// Key-value
	Redis DatabaseID = "redis"

	// Vector
	Pinecone DatabaseID = "pinecone"
	Weaviate DatabaseID = "weaviate"
)

// DataParadigm enumerates the primary data storage paradigms an engine supports.
type DataParadigm string

const (
	ParadigmRelational DataParadigm = "relational" // Tables, schemas, SQL
	ParadigmDocument   DataParadigm = "document"   // Collections, documents
	ParadigmKeyValue   DataParadigm = "keyvalue"   // Key/Value
	ParadigmVector     DataParadigm = "vector"     // Vector embeddings
)

// Capability describes what an engine supports in a way that the adapter layer
// and its consumers can negotiate on uniformly.
type Capability struct {
	// Human-friendly vendor or product name, e.g., "PostgreSQL".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see DatabaseID constants), e.g., "postgres".
	ID DatabaseID `json:"id"`

	// Primary data storage paradigm.
	Paradigm DataParadigm `json:"paradigm"`

	// Whether the engine speaks a textual query language (SQL). Engines without
	// one accept the tagged-operation protocol instead.
	SupportsSQL bool `json:"supportsSQL"`

	// Whether the adapter can open transactions against the engine. For Redis
	// this means the optimistic MULTI/EXEC command queue, not ACID isolation.
	SupportsTransactions bool `json:"supportsTransactions"`

	// Whether the adapter can produce a backup in-process. Engines that need an
	// external dump toolchain (pg_dump, mysqldump, mongodump) report false and
	// fail CreateBackup with a named error.
	SupportsBackup bool `json:"supportsBackup"`

	// Common aliases (directory names, drivers, env labels) that map to this engine.
	Aliases []string `json:"aliases,omitempty"`
}

// All is a registry of capabilities keyed by the canonical database ID.
var All = map[DatabaseID]Capability{
	PostgreSQL: {
		Name:                 "PostgreSQL",
		ID:                   PostgreSQL,
		Paradigm:             ParadigmRelational,
		SupportsSQL:          true,
		SupportsTransactions: true,
		SupportsBackup:       false,
		Aliases:              []string{"postgresql", "pgsql"},
	},
	MySQL: {
		Name:                 "MySQL",
		ID:                   MySQL,
		Paradigm:             ParadigmRelational,
		SupportsSQL:          true,
		SupportsTransactions: true,
		SupportsBackup:       false,
		Aliases:              []string{"mariadb"},
	},
	SQLite: {
		Name:                 "SQLite",
		ID:                   SQLite,
		Paradigm:             ParadigmRelational,
		SupportsSQL:          true,
		SupportsTransactions: true,
		SupportsBackup:       true,
		Aliases:              []string{"sqlite3"},
	},
	MongoDB: {
		Name:                 "MongoDB",
		ID:                   MongoDB,
		Paradigm:             ParadigmDocument,
		SupportsSQL:          false,
		SupportsTransactions: true,
		SupportsBackup:       false,
		Aliases:              []string{"mongo", "documentdb"},
	},
	Redis: {
		Name:                 "Redis",
		ID:                   Redis,
		Paradigm:             ParadigmKeyValue,
		SupportsSQL:          false,
		SupportsTransactions: true,
		SupportsBackup:       true,
		Aliases:              []string{"valkey", "cache"},
	},
	Pinecone: {
		Name:                 "Pinecone",
		ID:                   Pinecone,
		Paradigm:             ParadigmVector,
		SupportsSQL:          false,
		SupportsTransactions: false,
		SupportsBackup:       true,
	},
	Weaviate: {
		Name:                 "Weaviate",
		ID:                   Weaviate,
		Paradigm:             ParadigmVector,
		SupportsSQL:          false,
		SupportsTransactions: false,
		SupportsBackup:       true,
	},
}

// Get returns the capability entry for the given canonical ID.
func Get(id DatabaseID) (Capability, bool) {
	capability, ok := All[id]
	return capability, ok
}

// MustGet returns the capability entry for the given canonical ID and panics if
// it does not exist. Use only with the package constants.
func MustGet(id DatabaseID) Capability {
	capability, ok := All[id]
	if !ok {
		panic("dbcapabilities: unknown database id: " + string(id))
	}
	return capability
}

// ParseID resolves a name or alias (case-insensitive) to a canonical DatabaseID.
func ParseID(name string) (DatabaseID, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if _, ok := All[DatabaseID(normalized)]; ok {
		return DatabaseID(normalized), true
	}
	for id, capability := range All {
		for _, alias := range capability.Aliases {
			if alias == normalized {
				return id, true
			}
		}
	}
	return "", false
}

// IDs returns all canonical database IDs in the registry.
func IDs() []DatabaseID {
	ids := make([]DatabaseID, 0, len(All))
	for id := range All {
		ids = append(ids, id)
	}
	return ids
}

// SupportsTransactions reports whether the engine can open transactions.
func SupportsTransactions(id DatabaseID) bool {
	capability, ok := All[id]
	return ok && capability.SupportsTransactions
}

// SupportsBackup reports whether the adapter can produce a backup in-process.
func SupportsBackup(id DatabaseID) bool {
	capability, ok := All[id]
	return ok && capability.SupportsBackup
}
