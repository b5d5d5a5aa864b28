package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wayfarer/models"
)

// MongoStore implements Store on MongoDB. Per-owner itinerary collections
// are folded into one "itineraries" collection keyed by owner kind, owner
// id and itinerary id.
type MongoStore struct {
	client *mongo.Client
	c      Collections
	opts   storeOptions
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(client *mongo.Client, database string, opts ...Option) *MongoStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MongoStore{client: client, c: collections(client.Database(database)), opts: o}
}

func (s *MongoStore) Collections() Collections { return s.c }

// itineraryDoc is the stored shape of an itinerary.
type itineraryDoc struct {
	OwnerKind        OwnerKind `bson:"ownerKind"`
	OwnerID          string    `bson:"ownerId"`
	models.Itinerary `bson:",inline"`
}

func ownerFilter(owner Owner) bson.M {
	return bson.M{"ownerKind": owner.Kind, "ownerId": owner.ID}
}

func itineraryFilter(owner Owner, itineraryID string) bson.M {
	f := ownerFilter(owner)
	f["itineraryId"] = itineraryID
	return f
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (s *MongoStore) UpsertUser(ctx context.Context, u models.User) (*models.User, error) {
	now := s.opts.now()
	set := bson.M{
		"displayName":   u.DisplayName,
		"email":         u.Email,
		"picture":       u.Picture,
		"emailVerified": u.EmailVerified,
		"provider":      u.Provider,
		"lastActiveAt":  now,
	}
	if u.Preferences != nil {
		set["preferences"] = u.Preferences
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.User
	err := s.c.Users.FindOneAndUpdate(ctx, bson.M{"_id": u.UserID}, update, opts).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", u.UserID, err)
	}
	return &out, nil
}

func (s *MongoStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := s.c.Users.FindOne(ctx, bson.M{"_id": uid}).Decode(&u); err != nil {
		return nil, notFound(err, "user "+uid)
	}
	return &u, nil
}

func (s *MongoStore) updateUser(ctx context.Context, uid string, set bson.M) error {
	res, err := s.c.Users.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update user %s: %w", uid, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	return nil
}

func (s *MongoStore) UpdateUserPreferences(ctx context.Context, uid string, prefs map[string]any) error {
	return s.updateUser(ctx, uid, bson.M{"preferences": prefs, "lastActiveAt": s.opts.now()})
}

func (s *MongoStore) TouchUser(ctx context.Context, uid string) error {
	return s.updateUser(ctx, uid, bson.M{"lastActiveAt": s.opts.now()})
}

func (s *MongoStore) CreateSession(ctx context.Context, geoHint string, prefs map[string]float64) (*models.Session, error) {
	sess := newSession(s.opts.now(), s.opts.ttl, geoHint, prefs)
	if _, err := s.c.Sessions.InsertOne(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *MongoStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var sess models.Session
	err := s.c.Sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return &sess, nil
}

func (s *MongoStore) TouchSession(ctx context.Context, sessionID string) (*models.Session, error) {
	now := s.opts.now()
	filter := bson.M{"_id": sessionID, "expiresAt": bson.M{"$gte": now}}
	update := bson.M{"$set": bson.M{"lastSeen": now, "expiresAt": now.Add(s.opts.ttl)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sess models.Session
	err := s.c.Sessions.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, getErr := s.GetSession(ctx, sessionID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionExpired)
	}
	if err != nil {
		return nil, fmt.Errorf("touch session %s: %w", sessionID, err)
	}
	return &sess, nil
}

func (s *MongoStore) ClaimSessionMigration(ctx context.Context, sessionID, uid string) (*models.Session, error) {
	now := s.opts.now()
	filter := bson.M{"_id": sessionID, "migratedTo": nil}
	update := bson.M{"$set": bson.M{"migratedTo": uid, "migratedAt": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var sess models.Session
	err := s.c.Sessions.FindOneAndUpdate(ctx, filter, update, opts).Decode(&sess)
	if errors.Is(err, mongo.ErrNoDocuments) {
		existing, getErr := s.GetSession(ctx, sessionID)
		if getErr != nil {
			return nil, getErr
		}
		return existing, ErrAlreadyMigrated
	}
	if err != nil {
		return nil, fmt.Errorf("claim session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// sessionWritable is a read-then-compare; there is no transaction around
// the write that follows.
func (s *MongoStore) sessionWritable(ctx context.Context, owner Owner) error {
	if owner.Kind != OwnerSession {
		return nil
	}
	sess, err := s.GetSession(ctx, owner.ID)
	if err != nil {
		return err
	}
	if err := checkWritable(sess, s.opts.now()); err != nil {
		return fmt.Errorf("session %s: %w", owner.ID, err)
	}
	return nil
}

func (s *MongoStore) insert(ctx context.Context, owner Owner, it *models.Itinerary) error {
	doc := itineraryDoc{OwnerKind: owner.Kind, OwnerID: owner.ID, Itinerary: *it}
	if _, err := s.c.Itineraries.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert itinerary under %s: %w", owner.Path(), err)
	}
	return nil
}

func (s *MongoStore) SaveItinerary(ctx context.Context, owner Owner, it *models.Itinerary) (string, error) {
	if err := s.sessionWritable(ctx, owner); err != nil {
		return "", err
	}
	now := s.opts.now()
	it.ItineraryID = NewID("it")
	it.CreatedAt = &now
	it.UpdatedAt = &now
	if err := s.insert(ctx, owner, it); err != nil {
		return "", err
	}
	return it.ItineraryID, nil
}

func (s *MongoStore) GetItinerary(ctx context.Context, owner Owner, itineraryID string) (*models.Itinerary, error) {
	var doc itineraryDoc
	err := s.c.Itineraries.FindOne(ctx, itineraryFilter(owner, itineraryID)).Decode(&doc)
	if err != nil {
		return nil, notFound(err, "itinerary "+itineraryID+" under "+owner.Path())
	}
	return &doc.Itinerary, nil
}

func (s *MongoStore) ListItineraries(ctx context.Context, owner Owner, limit int) ([]models.Itinerary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "itineraryId", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.c.Itineraries.Find(ctx, ownerFilter(owner), opts)
	if err != nil {
		return nil, fmt.Errorf("list itineraries under %s: %w", owner.Path(), err)
	}
	defer cursor.Close(ctx)

	var docs []itineraryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode itineraries: %w", err)
	}
	out := make([]models.Itinerary, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Itinerary)
	}
	return out, nil
}

func (s *MongoStore) ReplaceItinerary(ctx context.Context, owner Owner, itineraryID string, it *models.Itinerary) (*models.Itinerary, error) {
	if err := s.sessionWritable(ctx, owner); err != nil {
		return nil, err
	}
	existing, err := s.GetItinerary(ctx, owner, itineraryID)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	it.ItineraryID = itineraryID
	it.CreatedAt = existing.CreatedAt
	it.UpdatedAt = &now
	it.MigratedFromSession = existing.MigratedFromSession
	it.MigratedAt = existing.MigratedAt

	doc := itineraryDoc{OwnerKind: owner.Kind, OwnerID: owner.ID, Itinerary: *it}
	res, err := s.c.Itineraries.ReplaceOne(ctx, itineraryFilter(owner, itineraryID), doc)
	if err != nil {
		return nil, fmt.Errorf("replace itinerary %s: %w", itineraryID, err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("itinerary %s under %s: %w", itineraryID, owner.Path(), ErrNotFound)
	}
	return it, nil
}

func (s *MongoStore) CopyItinerary(ctx context.Context, owner Owner, it *models.Itinerary) (string, error) {
	if err := s.sessionWritable(ctx, owner); err != nil {
		return "", err
	}
	clone, err := it.Clone()
	if err != nil {
		return "", err
	}
	clone.ItineraryID = NewID("it")
	now := s.opts.now()
	if clone.CreatedAt == nil {
		clone.CreatedAt = &now
	}
	if clone.UpdatedAt == nil {
		clone.UpdatedAt = &now
	}
	if err := s.insert(ctx, owner, clone); err != nil {
		return "", err
	}
	return clone.ItineraryID, nil
}

func (s *MongoStore) UpsertPOI(ctx context.Context, poi models.POI) error {
	poi.UpdatedAt = s.opts.now()
	_, err := s.c.POIs.ReplaceOne(ctx, bson.M{"_id": poi.PoiID}, poi, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert poi %s: %w", poi.PoiID, err)
	}
	return nil
}

func (s *MongoStore) GetPOI(ctx context.Context, poiID string) (*models.POI, error) {
	var poi models.POI
	if err := s.c.POIs.FindOne(ctx, bson.M{"_id": poiID}).Decode(&poi); err != nil {
		return nil, notFound(err, "poi "+poiID)
	}
	return &poi, nil
}

func (s *MongoStore) UpsertPlace(ctx context.Context, place models.Place) error {
	place.UpdatedAt = s.opts.now()
	_, err := s.c.Places.ReplaceOne(ctx, bson.M{"_id": place.PlaceID}, place, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert place %s: %w", place.PlaceID, err)
	}
	return nil
}

func (s *MongoStore) GetPlace(ctx context.Context, placeID string) (*models.Place, error) {
	var place models.Place
	if err := s.c.Places.FindOne(ctx, bson.M{"_id": placeID}).Decode(&place); err != nil {
		return nil, notFound(err, "place "+placeID)
	}
	return &place, nil
}

func (s *MongoStore) ListPlaces(ctx context.Context, limit int) ([]models.Place, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.c.Places.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	defer cursor.Close(ctx)

	var places []models.Place
	if err := cursor.All(ctx, &places); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}
	return places, nil
}

func (s *MongoStore) LogSearch(ctx context.Context, owner Owner, payload map[string]any) (string, error) {
	rec := models.SearchLog{
		LogID:     NewLogID("log"),
		OwnerKind: string(owner.Kind),
		OwnerID:   owner.ID,
		Payload:   payload,
		CreatedAt: s.opts.now(),
	}
	if _, err := s.c.SearchLogs.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("insert search log: %w", err)
	}
	return rec.LogID, nil
}

func (s *MongoStore) SaveLLMResponse(ctx context.Context, rec models.LLMResponse) (string, error) {
	rec.LLMID = NewLogID("llm")
	rec.CreatedAt = s.opts.now()
	if _, err := s.c.LLMResponses.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("insert llm response: %w", err)
	}
	return rec.LLMID, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
