// Package randomaccess implements the live nodes of the seek based runtime.
//
// Every node knows its row count once created, and MoveTo positions the whole tree below it
// on one row. Row filters and materialization have no random access counterpart.
package randomaccess
