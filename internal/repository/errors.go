package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrReferenceMissing = errors.New("referenced row does not exist")
	ErrSelfEdge         = errors.New("follow edge points to itself")
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

func isMySQLError(err error, number uint16) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == number
}

func isDuplicateError(err error) bool {
	return isMySQLError(err, mysqlDuplicateEntry)
}

func isForeignKeyError(err error) bool {
	return isMySQLError(err, mysqlNoReferencedRow)
}
