// Package query translates flat, untyped request parameters (as they arrive
// from an HTTP query string) into MongoDB filter, sort, pagination and
// projection clauses, plus the pagination metadata for list responses.
package query

import (
	"context"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
)

// Control keys recognized by the builder. Everything else in the raw
// specification is passed through as an exact-match equality filter.
const (
	keySearchTerm   = "searchTerm"
	keySort         = "sort"
	keyLimit        = "limit"
	keyPage         = "page"
	keyFields       = "fields"
	keyMinPrice     = "minPrice"
	keyMaxPrice     = "maxPrice"
	keyCategoryName = "categoryName"
	keyCategoryID   = "categoryId"
	keyCondition    = "condition"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Meta is the pagination metadata returned alongside every list result
type Meta struct {
	Page      int64 `json:"page"`
	Limit     int64 `json:"limit"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// Builder accumulates filter, sort, pagination and projection state from a
// base filter and a raw key-value specification. Chain order is
// Search -> Filter -> Sort -> Paginate -> Fields; every stage is a no-op
// when its inputs are absent, and malformed inputs degrade to defaults
// instead of failing the request.
type Builder struct {
	base       bson.M
	raw        map[string]string
	criteria   bson.M
	sort       bson.D
	projection bson.D
	page       int64
	limit      int64
	skip       int64
	paginated  bool
	logger     logging.Logger
}

// NewBuilder creates a builder scoped by the caller's base filter
func NewBuilder(base bson.M, raw map[string]string, logger logging.Logger) *Builder {
	if raw == nil {
		raw = map[string]string{}
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Builder{
		base:     base,
		raw:      raw,
		criteria: bson.M{},
		logger:   logger,
	}
}

// Search OR-combines a case-insensitive substring match for the search term
// across the given fields. No-op when the term or the field list is empty.
func (b *Builder) Search(fields ...string) *Builder {
	term := b.raw[keySearchTerm]
	if term == "" || len(fields) == 0 {
		return b
	}

	or := make(bson.A, 0, len(fields))
	for _, field := range fields {
		or = append(or, bson.M{field: bson.M{"$regex": term, "$options": "i"}})
	}
	b.criteria["$or"] = or

	return b
}

// Filter applies field-specific semantics to the raw specification and
// passes the remaining keys through as equality filters. Calling Filter
// twice with the same specification yields the same compound filter.
func (b *Builder) Filter() *Builder {
	passthrough := make(map[string]string, len(b.raw))
	for k, v := range b.raw {
		passthrough[k] = v
	}
	for _, k := range []string{keySearchTerm, keySort, keyLimit, keyPage, keyFields} {
		delete(passthrough, k)
	}

	// Price range is handled independently of the generic pass-through
	minPrice, minOK := parseFinite(passthrough[keyMinPrice])
	maxPrice, maxOK := parseFinite(passthrough[keyMaxPrice])
	if minOK || maxOK {
		price := bson.M{}
		if minOK {
			price["$gte"] = minPrice
		}
		if maxOK {
			price["$lte"] = maxPrice
		}
		b.criteria["price"] = price
	}
	delete(passthrough, keyMinPrice)
	delete(passthrough, keyMaxPrice)

	// Category name resolves against the referenced category's title
	if name := passthrough[keyCategoryName]; name != "" {
		b.criteria["categoryId.title"] = bson.M{"$regex": name, "$options": "i"}
	}
	delete(passthrough, keyCategoryName)

	// Category id converts to a native ObjectID; invalid ids drop the clause
	if raw := passthrough[keyCategoryID]; raw != "" {
		if oid, err := primitive.ObjectIDFromHex(raw); err == nil {
			b.criteria[keyCategoryID] = oid
		} else {
			b.logger.Warn(context.Background(), "Invalid categoryId format, skipping filter", map[string]interface{}{
				"categoryId": raw,
			})
		}
	}
	delete(passthrough, keyCategoryID)

	// Condition passes through unchanged
	if condition := passthrough[keyCondition]; condition != "" {
		b.criteria[keyCondition] = condition
	}
	delete(passthrough, keyCondition)

	for k, v := range passthrough {
		b.criteria[k] = v
	}

	return b
}

// Sort parses the comma-separated sort specification ("-" prefix for
// descending). Defaults to newest first.
func (b *Builder) Sort() *Builder {
	spec := b.raw[keySort]
	if spec == "" {
		spec = "-createdAt"
	}

	sort := bson.D{}
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "-") {
			sort = append(sort, bson.E{Key: strings.TrimPrefix(field, "-"), Value: -1})
		} else {
			sort = append(sort, bson.E{Key: field, Value: 1})
		}
	}
	if len(sort) > 0 {
		b.sort = sort
	}

	return b
}

// Paginate computes skip/limit from the page and limit parameters,
// coercing malformed values to defaults
func (b *Builder) Paginate() *Builder {
	b.page = parsePositiveInt(b.raw[keyPage], defaultPage)
	b.limit = parsePositiveInt(b.raw[keyLimit], defaultLimit)
	b.skip = (b.page - 1) * b.limit
	b.paginated = true

	return b
}

// Fields builds the projection from the comma-separated field list
// ("-" prefix excludes). Defaults to excluding only the internal document
// version counter.
func (b *Builder) Fields() *Builder {
	spec := b.raw[keyFields]
	if spec == "" {
		b.projection = bson.D{{Key: "version", Value: 0}}
		return b
	}

	projection := bson.D{}
	for _, field := range strings.Split(spec, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.HasPrefix(field, "-") {
			projection = append(projection, bson.E{Key: strings.TrimPrefix(field, "-"), Value: 0})
		} else {
			projection = append(projection, bson.E{Key: field, Value: 1})
		}
	}
	if len(projection) > 0 {
		b.projection = projection
	}

	return b
}

// Criteria returns the compound filter: the user-derived criteria AND-merged
// with the base scope. The base filter always wins on key collisions because
// the two are composed, never flattened into one document.
func (b *Builder) Criteria() bson.M {
	switch {
	case len(b.base) == 0 && len(b.criteria) == 0:
		return bson.M{}
	case len(b.criteria) == 0:
		return copyM(b.base)
	case len(b.base) == 0:
		return copyM(b.criteria)
	default:
		return bson.M{"$and": bson.A{copyM(b.base), copyM(b.criteria)}}
	}
}

// FindOptions materializes the accumulated sort, pagination and projection
// state into driver options
func (b *Builder) FindOptions() *options.FindOptions {
	opts := options.Find()
	if b.sort != nil {
		opts.SetSort(b.sort)
	}
	if b.paginated {
		opts.SetSkip(b.skip).SetLimit(b.limit)
	}
	if b.projection != nil {
		opts.SetProjection(b.projection)
	}
	return opts
}

// MetaFor computes pagination metadata for a total count against the filter
// as built (the count itself ignores skip/limit/projection)
func (b *Builder) MetaFor(total int64) Meta {
	page := parsePositiveInt(b.raw[keyPage], defaultPage)
	limit := parsePositiveInt(b.raw[keyLimit], defaultLimit)

	return Meta{
		Page:      page,
		Limit:     limit,
		Total:     total,
		TotalPage: int64(math.Ceil(float64(total) / float64(limit))),
	}
}

func parseFinite(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parsePositiveInt(raw string, fallback int64) int64 {
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func copyM(m bson.M) bson.M {
	out := make(bson.M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
