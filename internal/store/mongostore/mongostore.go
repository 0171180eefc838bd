// Package mongostore is the MongoDB backend of store.Store.
package mongostore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"budget/internal/core"
	"budget/internal/store"
)

var _ store.Store = (*Store)(nil)

// DefaultTimeout bounds every single database operation.
const DefaultTimeout = 10 * time.Second

const settingsKey = "settings"

type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	now     func() time.Time
}

// Connect dials uri, pings the server and ensures the indexes exist.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, store.Unavailable("connect mongo", err)
	}
	s := &Store{client: client, db: client.Database(database), timeout: DefaultTimeout, now: time.Now}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	slog.Info("MongoDB connection established", "database", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	period := mongo.IndexModel{Keys: bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}}
	for _, col := range []string{colExpenses, colRevenues} {
		if _, err := s.db.Collection(col).Indexes().CreateOne(ctx, period); err != nil {
			return store.Unavailable("create index on "+col, err)
		}
	}
	_, err := s.db.Collection(colNotifications).Indexes().CreateOne(ctx,
		mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}})
	return store.Unavailable("create index on "+colNotifications, err)
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return store.Unavailable("ping mongo", s.client.Ping(ctx, nil))
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by integration tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// classify maps driver errors onto the store error model.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	default:
		return store.Unavailable(op, err)
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}

func byID(oid primitive.ObjectID) bson.D { return bson.D{{Key: "_id", Value: oid}} }

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (string, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return "", err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	doc := toExpenseDoc(e)
	doc.ID = primitive.NewObjectID()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.Collection(colExpenses).InsertOne(ctx, doc); err != nil {
		return "", classify("insert expense", err)
	}
	return doc.ID.Hex(), nil
}

func (s *Store) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	oid, err := objectID(id)
	if err != nil {
		return core.Expense{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var doc expenseDoc
	if err := s.db.Collection(colExpenses).FindOne(ctx, byID(oid)).Decode(&doc); err != nil {
		return core.Expense{}, classify("find expense", err)
	}
	return doc.toCore(), nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cursor, err := s.db.Collection(colExpenses).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, classify("find expenses", err)
	}
	var docs []expenseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify("decode expenses", err)
	}
	out := make([]core.Expense, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) UpdateExpense(ctx context.Context, id string, edit core.Expense) (core.Expense, error) {
	current, err := s.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	updated := current.ApplyEdit(edit)
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}
	doc := toExpenseDoc(updated)
	doc.ID, _ = objectID(id)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.db.Collection(colExpenses).ReplaceOne(ctx, byID(doc.ID), doc)
	if err != nil {
		return core.Expense{}, classify("replace expense", err)
	}
	if res.MatchedCount == 0 {
		return core.Expense{}, store.ErrNotFound
	}
	return updated, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	return s.deleteByID(ctx, colExpenses, id)
}

func (s *Store) deleteByID(ctx context.Context, col, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.db.Collection(col).DeleteOne(ctx, byID(oid))
	if err != nil {
		return classify("delete from "+col, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateIncome(ctx context.Context, in core.Income) (string, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return "", err
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.now()
	}
	doc := toRevenueDoc(in)
	doc.ID = primitive.NewObjectID()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.Collection(colRevenues).InsertOne(ctx, doc); err != nil {
		return "", classify("insert income", err)
	}
	return doc.ID.Hex(), nil
}

func (s *Store) GetIncome(ctx context.Context, id string) (core.Income, error) {
	oid, err := objectID(id)
	if err != nil {
		return core.Income{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var doc revenueDoc
	if err := s.db.Collection(colRevenues).FindOne(ctx, byID(oid)).Decode(&doc); err != nil {
		return core.Income{}, classify("find income", err)
	}
	return doc.toCore(), nil
}

func (s *Store) ListIncomes(ctx context.Context) ([]core.Income, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cursor, err := s.db.Collection(colRevenues).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, classify("find incomes", err)
	}
	var docs []revenueDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify("decode incomes", err)
	}
	out := make([]core.Income, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) UpdateIncome(ctx context.Context, id string, edit core.Income) (core.Income, error) {
	current, err := s.GetIncome(ctx, id)
	if err != nil {
		return core.Income{}, err
	}
	updated := current.ApplyEdit(edit)
	if err := updated.Validate(); err != nil {
		return core.Income{}, err
	}
	doc := toRevenueDoc(updated)
	doc.ID, _ = objectID(id)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.db.Collection(colRevenues).ReplaceOne(ctx, byID(doc.ID), doc)
	if err != nil {
		return core.Income{}, classify("replace income", err)
	}
	if res.MatchedCount == 0 {
		return core.Income{}, store.ErrNotFound
	}
	return updated, nil
}

func (s *Store) DeleteIncome(ctx context.Context, id string) error {
	return s.deleteByID(ctx, colRevenues, id)
}

func (s *Store) getConfig(ctx context.Context, key string) (configDoc, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var doc configDoc
	err := s.db.Collection(colConfig).FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return configDoc{}, false, nil
	}
	if err != nil {
		return configDoc{}, false, classify("find config "+key, err)
	}
	return doc, true, nil
}

func (s *Store) putConfig(ctx context.Context, doc configDoc) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	doc.UpdatedAt = s.now()
	_, err := s.db.Collection(colConfig).ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.Key}}, doc,
		options.Replace().SetUpsert(true))
	return classify("save config "+doc.Key, err)
}

func (s *Store) GetTaxonomy(ctx context.Context, kind core.TaxonomyKind) ([]string, bool, error) {
	doc, found, err := s.getConfig(ctx, string(kind))
	return doc.Items, found, err
}

func (s *Store) SaveTaxonomy(ctx context.Context, kind core.TaxonomyKind, list []string) error {
	return s.putConfig(ctx, configDoc{Key: string(kind), Items: list})
}

func (s *Store) GetSettings(ctx context.Context) (core.Settings, bool, error) {
	doc, found, err := s.getConfig(ctx, settingsKey)
	return core.Settings{Users: doc.Users, FamilyName: doc.FamilyName}, found, err
}

func (s *Store) SaveSettings(ctx context.Context, settings core.Settings) error {
	return s.putConfig(ctx, configDoc{Key: settingsKey, Users: settings.Users, FamilyName: settings.FamilyName})
}

func (s *Store) GetProfile(ctx context.Context, name string) (core.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var doc profileDoc
	if err := s.db.Collection(colProfiles).FindOne(ctx, bson.D{{Key: "_id", Value: name}}).Decode(&doc); err != nil {
		return core.UserProfile{}, classify("find profile", err)
	}
	return doc.toCore(), nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]core.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cursor, err := s.db.Collection(colProfiles).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, classify("find profiles", err)
	}
	var docs []profileDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify("decode profiles", err)
	}
	out := make([]core.UserProfile, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) SaveProfile(ctx context.Context, p core.UserProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	now := s.now()
	created := p.CreatedAt
	if created.IsZero() {
		created = now
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "image", Value: p.Image},
			{Key: "image_type", Value: p.ImageType},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: created}}},
	}
	_, err := s.db.Collection(colProfiles).UpdateOne(ctx, bson.D{{Key: "_id", Value: p.Name}}, update,
		options.Update().SetUpsert(true))
	return classify("save profile", err)
}

func (s *Store) DeleteProfile(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	filter := bson.D{{Key: "_id", Value: name}}
	res, err := s.db.Collection(colProfiles).DeleteOne(ctx, filter)
	if err != nil {
		return classify("delete profile", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	for _, col := range []string{colThemes, colPreferences} {
		if _, err := s.db.Collection(col).DeleteOne(ctx, filter); err != nil {
			return classify("delete from "+col, err)
		}
	}
	return nil
}

func (s *Store) GetTheme(ctx context.Context, user string) (core.Theme, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var doc themeDoc
	if err := s.db.Collection(colThemes).FindOne(ctx, bson.D{{Key: "_id", Value: user}}).Decode(&doc); err != nil {
		return core.Theme{}, classify("find theme", err)
	}
	return core.Theme{User: doc.User, Mode: core.ThemeMode(doc.Mode), Palette: doc.Palette, UpdatedAt: doc.UpdatedAt.UTC()}, nil
}

func (s *Store) SaveTheme(ctx context.Context, t core.Theme) error {
	if err := t.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	doc := themeDoc{User: t.User, Mode: string(t.Mode), Palette: t.Palette, UpdatedAt: s.now()}
	_, err := s.db.Collection(colThemes).ReplaceOne(ctx, bson.D{{Key: "_id", Value: t.User}}, doc,
		options.Replace().SetUpsert(true))
	return classify("save theme", err)
}

func (s *Store) GetPreferences(ctx context.Context, user string) (core.Preferences, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	var doc preferencesDoc
	if err := s.db.Collection(colPreferences).FindOne(ctx, bson.D{{Key: "_id", Value: user}}).Decode(&doc); err != nil {
		return core.Preferences{}, classify("find preferences", err)
	}
	return doc.toCore(), nil
}

func (s *Store) SavePreferences(ctx context.Context, p core.Preferences) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	p.UpdatedAt = s.now()
	_, err := s.db.Collection(colPreferences).ReplaceOne(ctx, bson.D{{Key: "_id", Value: p.User}}, toPreferencesDoc(p),
		options.Replace().SetUpsert(true))
	return classify("save preferences", err)
}

func (s *Store) AppendNotification(ctx context.Context, n core.Notification) (string, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	doc := notificationDoc{
		ID:        primitive.NewObjectID(),
		Title:     n.Title,
		Message:   n.Message,
		User:      n.User,
		Module:    n.Module,
		CreatedAt: n.CreatedAt,
		Read:      n.Read,
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if _, err := s.db.Collection(colNotifications).InsertOne(ctx, doc); err != nil {
		return "", classify("insert notification", err)
	}
	return doc.ID.Hex(), nil
}

func (s *Store) ListNotifications(ctx context.Context, limit int) ([]core.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.db.Collection(colNotifications).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, classify("find notifications", err)
	}
	var docs []notificationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify("decode notifications", err)
	}
	out := make([]core.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCore())
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.db.Collection(colNotifications).UpdateOne(ctx, byID(oid),
		bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}})
	if err != nil {
		return classify("mark notification read", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	_, err := s.db.Collection(colNotifications).UpdateMany(ctx, bson.D{{Key: "read", Value: false}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}})
	return classify("mark all notifications read", err)
}

func (s *Store) CountUnreadNotifications(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.db.Collection(colNotifications).CountDocuments(ctx, bson.D{{Key: "read", Value: false}})
	if err != nil {
		return 0, classify("count notifications", err)
	}
	return int(n), nil
}
