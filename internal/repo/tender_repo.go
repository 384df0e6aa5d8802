package repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/ayamekni/AfriOffres/internal/domain"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func tenderFilter(f domain.TenderFilter) bson.M {
	q := bson.M{}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"organization": rx},
		}
	}
	if f.Country != "" {
		q["country"] = f.Country
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

// ListTenders returns one page of matching tenders, newest first, and the
// total number of matches.
func (s *Store) ListTenders(ctx context.Context, f domain.TenderFilter, p domain.Page) (items []domain.Tender, total int64, err error) {
	sp, ctx := startSpan(ctx, "mongo.tenders.list",
		tracer.Tag("page", p.Number), tracer.Tag("limit", p.Size))
	defer func() { finish(sp, err) }()

	q := tenderFilter(f)
	total, err = s.colTenders.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count tenders: %w", err)
	}

	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Size))
	cur, err := s.colTenders.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find tenders: %w", err)
	}
	defer cur.Close(ctx)

	items = []domain.Tender{}
	if err = cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode tenders: %w", err)
	}
	return items, total, nil
}

func (s *Store) FindTenderByID(ctx context.Context, id primitive.ObjectID) (t *domain.Tender, err error) {
	sp, ctx := startSpan(ctx, "mongo.tenders.find_one", tracer.Tag("tender_id", id.Hex()))
	defer func() { finish(sp, err) }()

	var out domain.Tender
	err = s.colTenders.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DistinctTenderValues lists the distinct non-empty string values of field.
func (s *Store) DistinctTenderValues(ctx context.Context, field string) (vals []string, err error) {
	sp, ctx := startSpan(ctx, "mongo.tenders.distinct", tracer.Tag("field", field))
	defer func() { finish(sp, err) }()

	raw, err := s.colTenders.Distinct(ctx, field, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}
	vals = make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok && str != "" {
			vals = append(vals, str)
		}
	}
	sort.Strings(vals)
	return vals, nil
}

// RecommendTenders returns up to limit newest tenders whose category is in
// categories and whose country is in countries. An empty list does not filter.
func (s *Store) RecommendTenders(ctx context.Context, categories, countries []string, limit int) (items []domain.Tender, err error) {
	sp, ctx := startSpan(ctx, "mongo.tenders.recommend")
	defer func() { finish(sp, err) }()

	q := bson.M{}
	if len(categories) > 0 {
		q["category"] = bson.M{"$in": categories}
	}
	if len(countries) > 0 {
		q["country"] = bson.M{"$in": countries}
	}
	cur, err := s.colTenders.Find(ctx, q, options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("find recommendations: %w", err)
	}
	defer cur.Close(ctx)

	items = []domain.Tender{}
	if err = cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Cleared on overwrite when the new record lacks them.
var optionalTenderFields = []string{
	"country", "category", "budget", "contact_email", "contact_phone", "website", "deadline",
}

func identity(t domain.Tender) bson.M {
	return bson.M{"title": t.Title, "organization": t.Organization}
}

func tenderDoc(t domain.Tender) (bson.M, error) {
	t.ID = primitive.NilObjectID
	b, err := bson.Marshal(t)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	return doc, nil
}

// UpsertTender overwrites the stored tender with the same (title, organization)
// or inserts a new one, in a single atomic write. Last writer wins.
func (s *Store) UpsertTender(ctx context.Context, t domain.Tender) (inserted bool, err error) {
	sp, ctx := startSpan(ctx, "mongo.tenders.upsert", tracer.Tag("source", t.SourceCountry))
	defer func() { finish(sp, err) }()

	doc, err := tenderDoc(t)
	if err != nil {
		return false, fmt.Errorf("encode tender: %w", err)
	}
	update := bson.M{"$set": doc}
	unset := bson.M{}
	for _, f := range optionalTenderFields {
		if _, ok := doc[f]; !ok {
			unset[f] = ""
		}
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	opts := options.Update().SetUpsert(true)

	res, err := s.colTenders.UpdateOne(ctx, identity(t), update, opts)
	if IsDup(err) {
		// two upserts raced on the unique index; the loser retries as an update
		res, err = s.colTenders.UpdateOne(ctx, identity(t), update, opts)
	}
	if err != nil {
		return false, fmt.Errorf("upsert tender: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

// InsertTenderIfAbsent stores t only if no tender has its (title, organization).
func (s *Store) InsertTenderIfAbsent(ctx context.Context, t domain.Tender) (inserted bool, err error) {
	sp, ctx := startSpan(ctx, "mongo.tenders.insert_if_absent")
	defer func() { finish(sp, err) }()

	doc, err := tenderDoc(t)
	if err != nil {
		return false, fmt.Errorf("encode tender: %w", err)
	}
	res, err := s.colTenders.UpdateOne(ctx, identity(t), bson.M{"$setOnInsert": doc}, options.Update().SetUpsert(true))
	if IsDup(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert tender: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

func (s *Store) CountTenders(ctx context.Context) (int64, error) {
	return s.colTenders.CountDocuments(ctx, bson.M{})
}
