package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
)

const uniqueViolation = "23505"

// base holds the default executor of a repository.
type base struct {
	db *sqlx.DB
}

// getExec returns the executor handed in by the service (a *sqlx.Tx), else the repository's DB.
func (b base) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return b.db
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// trapUniqueErr maps postgres unique violations on constraint to dupErr (by constraint name).
func trapUniqueErr(err error, msg string, dupErrs map[string]error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if dupErr, ok := dupErrs[pqErr.Constraint]; ok {
			return dupErr
		}
		return core.NewDuplicateError(pqErr.Constraint, err)
	}
	return errors.Wrap(err, msg)
}

// whereClause accumulates AND-ed conditions using ? placeholders; rebind before executing.
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// rebind expands slice args of IN (?) clauses then converts placeholders to postgres bindvars.
func rebind(query string, args []interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding query args")
	}
	return sqlx.Rebind(sqlx.DOLLAR, query), args, nil
}

func orderBy(ordering []core.DBOrdering, allowed map[string]bool) string {
	list := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if allowed[ord.Field] {
			list = append(list, ord.String())
		}
	}
	if len(list) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(list, ", ")
}

func newID() string {
	return uuid.New().String()
}

// checkAffected returns notFound when res touched no row.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// dayString formats the calendar day of t in loc for a DATE column.
func dayString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// localDay turns a scanned DATE (UTC midnight) into midnight of the same day in loc.
func localDay(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
