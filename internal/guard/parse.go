package guard

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// checkParsed parses the statement with the PostgreSQL grammar and accepts
// exactly one plain query: a SELECT or a set operation over SELECTs, with no
// INTO target and no row locking anywhere in the set tree.
func checkParsed(cleaned string) error {
	result, err := pg_query.Parse(cleaned)
	if err != nil {
		return notSelect(cleaned, "parse: "+err.Error())
	}
	if len(result.GetStmts()) != 1 {
		return notSelect(cleaned, "exactly one statement is required")
	}
	stmt := result.GetStmts()[0].GetStmt().GetSelectStmt()
	if stmt == nil {
		return notSelect(cleaned, "statement is not a query")
	}
	return checkSelectTree(cleaned, stmt)
}

func checkSelectTree(cleaned string, stmt *pg_query.SelectStmt) error {
	if stmt == nil {
		return nil
	}
	if stmt.GetIntoClause() != nil {
		return notSelect(cleaned, "SELECT INTO is not allowed")
	}
	if len(stmt.GetLockingClause()) > 0 {
		return notSelect(cleaned, "row locking is not allowed")
	}
	if err := checkSelectTree(cleaned, stmt.GetLarg()); err != nil {
		return err
	}
	return checkSelectTree(cleaned, stmt.GetRarg())
}
