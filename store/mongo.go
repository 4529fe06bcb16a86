package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mbolis/cart-survey/model"
)

const ResponsesCollection = "survey_responses"

type MongoResponses struct {
	coll *mongo.Collection
}

func NewMongoResponses(db *mongo.Database) *MongoResponses {
	// decode embedded documents as maps so records render back as plain JSON objects
	opts := options.Collection().SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	return &MongoResponses{db.Collection(ResponsesCollection, opts)}
}

func (s *MongoResponses) Insert(ctx context.Context, r model.Response) (string, error) {
	doc := bson.M{}
	for k, v := range r {
		if k != model.FieldID {
			doc[k] = v
		}
	}

	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert response: %w", err)
	}
	return idString(res.InsertedID), nil
}

func (s *MongoResponses) List(ctx context.Context, rg model.Range, page model.Page) ([]model.Response, int64, error) {
	filter := rangeFilter(rg)

	findOpts := options.Find().
		SetSort(bson.D{{Key: model.FieldTimestamp, Value: -1}}).
		SetSkip(page.Skip).
		SetLimit(page.Limit)

	cursor, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("find responses: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, 0, fmt.Errorf("decode responses: %w", err)
	}

	responses := make([]model.Response, 0, len(docs))
	for _, doc := range docs {
		r := model.Response(doc)
		r[model.FieldID] = idString(doc[model.FieldID])
		responses = append(responses, r)
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}
	return responses, total, nil
}

func (s *MongoResponses) Analytics(ctx context.Context, rg model.Range) (a model.Analytics, err error) {
	filter := rangeFilter(rg)

	a.TotalResponses, err = s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return a, fmt.Errorf("count responses: %w", err)
	}

	a.SatisfactionData, err = s.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: withField(filter, model.RatingField)}},
		{{Key: "$group", Value: bson.M{"_id": "$" + model.RatingField, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return a, fmt.Errorf("satisfaction: %w", err)
	}

	a.PrimaryConcerns, err = s.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: withField(filter, model.ReasonField)}},
		{{Key: "$group", Value: bson.M{"_id": "$" + model.ReasonField, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return a, fmt.Errorf("primary concerns: %w", err)
	}

	a.ResponseTrend, err = s.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$project", Value: bson.M{
			"date": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date": bson.M{"$convert": bson.M{
					"input":   "$" + model.FieldTimestamp,
					"to":      "date",
					"onError": nil,
					"onNull":  nil,
				}},
			}},
		}}},
		{{Key: "$match", Value: bson.M{"date": bson.M{"$ne": nil}}}},
		{{Key: "$group", Value: bson.M{"_id": "$date", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return a, fmt.Errorf("response trend: %w", err)
	}
	return
}

func (s *MongoResponses) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]model.GroupCount, error) {
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []model.GroupCount
	err = cursor.All(ctx, &groups)
	if err != nil {
		return nil, err
	}
	return nonNil(groups), nil
}

func rangeFilter(rg model.Range) bson.M {
	filter := bson.M{}
	bounds := bson.M{}
	if rg.Start != "" {
		bounds["$gte"] = rg.Start
	}
	if rg.End != "" {
		bounds["$lte"] = rg.End
	}
	if len(bounds) > 0 {
		filter[model.FieldTimestamp] = bounds
	}
	return filter
}

func withField(filter bson.M, field string) bson.M {
	out := bson.M{field: bson.M{"$exists": true}}
	for k, v := range filter {
		out[k] = v
	}
	return out
}

func idString(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
