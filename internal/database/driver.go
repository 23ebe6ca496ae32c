package database

import (
	"database/sql"
	"math"
	"strings"
	"unicode"

	"github.com/mattn/go-sqlite3"
)

// sqliteDriver is go-sqlite3 with the functions the search statements need.
const sqliteDriver = "sqlite3_cpindex"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("casefold", strings.ToLower, true); err != nil {
				return err
			}
			return conn.RegisterFunc("page_ordinal", PageOrdinal, true)
		},
	})
}

// PageOrdinal returns the integer a page/folio starts with, ignoring leading
// blanks: "12" and "12v" give 12. It returns -1 when the value does not
// start with a digit.
func PageOrdinal(page string) int64 {
	s := strings.TrimLeftFunc(page, unicode.IsSpace)
	var n int64
	digits := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		d := int64(r - '0')
		if n > (math.MaxInt64-d)/10 {
			return -1
		}
		n = n*10 + d
		digits++
	}
	if digits == 0 {
		return -1
	}
	return n
}
