package stdlib

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tulpar-lang/tulpar/internal/builtin"
	"github.com/tulpar-lang/tulpar/internal/value"
)

// dbManager tracks open connections by the handle name a Tulpar program
// chose, generalized from the teacher's DatabaseModule/DBConnection
// pair (internal/database/database.go) down to what the language core
// needs: open, query, exec, close.
type dbManager struct {
	mu    sync.RWMutex
	conns map[string]*sql.DB
}

var dbs = &dbManager{conns: make(map[string]*sql.DB)}

func registerDatabase(r builtin.Registry) {
	r["dbOpen"] = biDBOpen
	r["dbQuery"] = biDBQuery
	r["dbExec"] = biDBExec
	r["dbClose"] = biDBClose
}

// dbOpen(handle, driver, dsn) -> bool
func biDBOpen(args []value.Value) value.Value {
	handle, driver, dsn := strArg(args, 0), strArg(args, 1), strArg(args, 2)
	if handle == "" || driver == "" {
		reportf("dbOpen expects (handle, driver, dsn)")
		return value.BoolValue(false)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		reportf("dbOpen: %v", err)
		return value.BoolValue(false)
	}
	if err := conn.Ping(); err != nil {
		reportf("dbOpen: %v", err)
		return value.BoolValue(false)
	}
	dbs.mu.Lock()
	dbs.conns[handle] = conn
	dbs.mu.Unlock()
	return value.BoolValue(true)
}

// dbQuery(handle, sql, ...args) -> array of objects, one per row
func biDBQuery(args []value.Value) value.Value {
	handle, query := strArg(args, 0), strArg(args, 1)
	conn, ok := dbs.lookup(handle)
	if !ok {
		reportf("dbQuery: no open connection %q", handle)
		return value.ObjValue(value.NewArray())
	}
	rows, err := conn.Query(query, sqlArgs(args[2:])...)
	if err != nil {
		reportf("dbQuery: %v", err)
		return value.ObjValue(value.NewArray())
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		reportf("dbQuery: %v", err)
		return value.ObjValue(value.NewArray())
	}

	result := value.NewArray()
	for rows.Next() {
		scanDest := make([]interface{}, len(cols))
		scanPtrs := make([]interface{}, len(cols))
		for i := range scanDest {
			scanPtrs[i] = &scanDest[i]
		}
		if err := rows.Scan(scanPtrs...); err != nil {
			reportf("dbQuery: %v", err)
			break
		}
		obj := value.NewObject()
		for i, col := range cols {
			obj.Set(col, sqlValueToTulpar(scanDest[i]))
		}
		result.Push(value.ObjValue(obj))
	}
	return value.ObjValue(result)
}

// dbExec(handle, sql, ...args) -> int rows affected
func biDBExec(args []value.Value) value.Value {
	handle, query := strArg(args, 0), strArg(args, 1)
	conn, ok := dbs.lookup(handle)
	if !ok {
		reportf("dbExec: no open connection %q", handle)
		return value.IntValue(0)
	}
	res, err := conn.Exec(query, sqlArgs(args[2:])...)
	if err != nil {
		reportf("dbExec: %v", err)
		return value.IntValue(0)
	}
	n, _ := res.RowsAffected()
	return value.IntValue(n)
}

func biDBClose(args []value.Value) value.Value {
	handle := strArg(args, 0)
	dbs.mu.Lock()
	defer dbs.mu.Unlock()
	conn, ok := dbs.conns[handle]
	if !ok {
		return value.BoolValue(false)
	}
	delete(dbs.conns, handle)
	if err := conn.Close(); err != nil {
		reportf("dbClose: %v", err)
		return value.BoolValue(false)
	}
	return value.BoolValue(true)
}

func (m *dbManager) lookup(handle string) (*sql.DB, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.conns[handle]
	return conn, ok
}

func sqlArgs(vs []value.Value) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		switch v.Tag {
		case value.Int:
			out[i] = v.AsInt()
		case value.Float:
			out[i] = v.AsFloat()
		case value.Bool:
			out[i] = v.Bool
		case value.Obj:
			if s, ok := v.Object.(*value.Str); ok {
				out[i] = s.String()
			} else {
				out[i] = fmt.Sprint(v)
			}
		default:
			out[i] = nil
		}
	}
	return out
}

func sqlValueToTulpar(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.VoidValue
	case int64:
		return value.IntValue(t)
	case float64:
		return value.FloatValue(t)
	case bool:
		return value.BoolValue(t)
	case []byte:
		return value.ObjValue(value.NewStr(string(t)))
	case string:
		return value.ObjValue(value.NewStr(t))
	default:
		return value.ObjValue(value.NewStr(fmt.Sprint(t)))
	}
}

func strArg(args []value.Value, i int) string {
	v := arg(args, i)
	if s, ok := v.Object.(*value.Str); ok && v.Tag == value.Obj {
		return s.String()
	}
	return ""
}
