/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
	CanceledErr
)

var sqlErrorNames = map[SQLError]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no_rows",
	NoIndexErr:                  "no_index",
	NoColumnErr:                 "no_column",
	ExistIndexErr:               "exist_index",
	ExistColumnErr:              "exist_column",
	NoTableErr:                  "no_table",
	ExistTableErr:               "exist_table",
	DuplicateKeyErr:             "duplicate_key",
	NotNullViolationErr:         "not_null_violation",
	ForeignKeyViolationErr:      "foreign_key_violation",
	CheckConstraintViolationErr: "check_constraint_violation",
	DataTruncatedErr:            "data_truncated",
	InvalidTypeCastErr:          "invalid_type_cast",
	CanceledErr:                 "canceled",
}

func (e SQLError) String() string {
	if s, ok := sqlErrorNames[e]; ok {
		return s
	}
	return sqlErrorNames[UnknownErr]
}

// ClassifyError maps err to an SQLError kind; unrecognized errors are UnknownErr.
func ClassifyError(err error) SQLError {
	if err == nil {
		return UnknownErr
	}
	_, kind := IsSqlError(err)
	return kind
}

// IsSqlError reports whether err originates from the driver and which kind
// of failure it represents. mysql errors are matched by number, postgres and
// sqlite ones by message.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, ErrNotFound) {
		return true, NoRowsErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, CanceledErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1091:
			return true, NoIndexErr
		case 1054:
			return true, NoColumnErr
		case 1061:
			return true, ExistIndexErr
		case 1060:
			return true, ExistColumnErr
		case 1146:
			return true, NoTableErr
		case 1050:
			return true, ExistTableErr
		case 1062:
			return true, DuplicateKeyErr
		case 1048:
			return true, NotNullViolationErr
		case 1216, 1217, 1451, 1452:
			return true, ForeignKeyViolationErr
		case 3819:
			return true, CheckConstraintViolationErr
		case 1265, 1406:
			return true, DataTruncatedErr
		default:
			return true, UnknownErr
		}
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "sqlstate 42703"),
		strings.Contains(s, "undefined column"),
		strings.Contains(s, "no such column"):
		return true, NoColumnErr
	case strings.Contains(s, "sqlstate 42704"),
		strings.Contains(s, "no such index"),
		strings.Contains(s, "does not exist") && strings.Contains(s, "index"):
		return true, NoIndexErr
	case strings.Contains(s, "sqlstate 42p01"),
		strings.Contains(s, "undefined table"),
		strings.Contains(s, "no such table"),
		strings.Contains(s, "relation") && strings.Contains(s, "does not exist"):
		return true, NoTableErr
	case strings.Contains(s, "already exists") && strings.Contains(s, "index"):
		return true, ExistIndexErr
	case strings.Contains(s, "already exists") && (strings.Contains(s, "table") || strings.Contains(s, "relation")):
		return true, ExistTableErr
	case strings.Contains(s, "duplicate key value"),
		strings.Contains(s, "unique constraint failed"),
		strings.Contains(s, "sqlstate 23505"):
		return true, DuplicateKeyErr
	case strings.Contains(s, "not-null constraint"),
		strings.Contains(s, "sqlstate 23502"),
		strings.Contains(s, "not null constraint failed"):
		return true, NotNullViolationErr
	case strings.Contains(s, "foreign key violation"),
		strings.Contains(s, "foreign key constraint failed"),
		strings.Contains(s, "sqlstate 23503"):
		return true, ForeignKeyViolationErr
	case strings.Contains(s, "check constraint"),
		strings.Contains(s, "sqlstate 23514"):
		return true, CheckConstraintViolationErr
	case strings.Contains(s, "string data right truncation"),
		strings.Contains(s, "sqlstate 22001"),
		strings.Contains(s, "data truncated"):
		return true, DataTruncatedErr
	case strings.Contains(s, "datatype mismatch"),
		strings.Contains(s, "sqlstate 42804"):
		return true, InvalidTypeCastErr
	}
	return false, UnknownErr
}
