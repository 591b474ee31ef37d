// Package dbcapabilities provides a shared registry describing the capabilities
// of the storage engines supported by the adapter layer. Services import this
// package to make decisions based on uniform metadata (paradigm, transaction
// and backup support) instead of probing engines at runtime.
//
// Minimal usage example:
//
//	import "github.com/Algodons/algo-dbcore/pkg/dbcapabilities"
//
//	func canUseTransactions(db string) bool {
//	    id, ok := dbcapabilities.ParseID(db)
//	    return ok && dbcapabilities.SupportsTransactions(id)
//	}
package dbcapabilities
