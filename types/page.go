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

package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tomoncle/hummer-querydsl/predicate"
)

// ErrInvalidArgument marks caller errors detected before any query runs.
var ErrInvalidArgument = errors.New("invalid argument")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Order sorts by a field, ascending unless Desc.
type Order struct {
	Field predicate.Field
	Desc  bool
}

func (o Order) String() string {
	if o.Desc {
		return string(o.Field) + " DESC"
	}
	return string(o.Field) + " ASC"
}

// Asc and Desc build orders.
func Asc(f predicate.Field) Order { return Order{Field: f} }

func Desc(f predicate.Field) Order { return Order{Field: f, Desc: true} }

// PageRequest describes an offset/limit window and optional ordering.
type PageRequest struct {
	Offset int     `validate:"gte=0"`
	Limit  int     `validate:"gt=0"`
	Orders []Order `validate:"dive"`
}

// NewPageRequest constructs a PageRequest; call Validate before use.
func NewPageRequest(offset, limit int, orders ...Order) PageRequest {
	return PageRequest{Offset: offset, Limit: limit, Orders: orders}
}

// NewPageRequestOfPage converts a zero-based page number into an offset.
func NewPageRequestOfPage(page, size int, orders ...Order) PageRequest {
	return NewPageRequest(page*size, size, orders...)
}

// Validate rejects a negative offset, a non-positive limit, and orders
// without a field. The error wraps ErrInvalidArgument.
func (p PageRequest) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	for i, o := range p.Orders {
		if o.Field == "" {
			return fmt.Errorf("%w: order #%d has no field", ErrInvalidArgument, i)
		}
	}
	return nil
}

// PageNumber returns the zero-based page the offset falls on.
func (p PageRequest) PageNumber() int {
	if p.Limit <= 0 {
		return 0
	}
	return p.Offset / p.Limit
}

// Page is one window of results with the total count across all windows.
// Build it with NewPage; the fields are not meant to be modified afterwards.
type Page[T any] struct {
	Content []T `json:"content"`
	Total   int `json:"total"`
	Offset  int `json:"offset"`
	Limit   int `json:"limit"`
}

// NewPage assembles a page. A nil content slice becomes empty.
func NewPage[T any](content []T, total int, req PageRequest) *Page[T] {
	if content == nil {
		content = make([]T, 0)
	}
	return &Page[T]{Content: content, Total: total, Offset: req.Offset, Limit: req.Limit}
}

// TotalPages returns how many pages of Limit rows cover Total.
func (p *Page[T]) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// HasNext reports whether rows exist past this page.
func (p *Page[T]) HasNext() bool {
	return p.Offset+len(p.Content) < p.Total
}

func (p *Page[T]) IsFirst() bool { return p.Offset == 0 }

func (p *Page[T]) IsLast() bool { return !p.HasNext() }
