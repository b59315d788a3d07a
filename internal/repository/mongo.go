package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"auction-bidding/internal/biddingerrors"
	model "auction-bidding/internal/models"
	"auction-bidding/utils"
)

const (
	productsCollection = "products"
	usersCollection    = "users"

	mgSocketTimeout = 60 * time.Second
	maxCASAttempts  = 16
)

var errContention = errors.New("listing changed concurrently too many times")

type bidDoc struct {
	Username string `bson:"username"`
	BidPrice string `bson:"bidPrice"`
}

type listingDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Number     int64              `bson:"id"`
	Name       string             `bson:"name"`
	BidPrice   string             `bson:"bidPrice"`
	ImageSrc   string             `bson:"imageSrc"`
	ImageAlt   string             `bson:"imageAlt"`
	Details    string             `bson:"details,omitempty"`
	BidHistory []bidDoc           `bson:"bidHistory"`
	EndDate    *time.Time         `bson:"endDate,omitempty"`
	Version    int64              `bson:"version"`
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func toListingDoc(l model.Listing) listingDoc {
	doc := listingDoc{
		Number:     l.Number,
		Name:       l.Name,
		BidPrice:   l.BidPrice.String(),
		ImageSrc:   l.ImageSrc,
		ImageAlt:   l.ImageAlt,
		Details:    l.Details,
		BidHistory: make([]bidDoc, 0, len(l.BidHistory)),
		EndDate:    l.EndDate,
	}
	for _, b := range l.BidHistory {
		doc.BidHistory = append(doc.BidHistory, bidDoc{Username: b.Username, BidPrice: b.BidPrice.String()})
	}
	return doc
}

func (d listingDoc) toModel() (model.Listing, error) {
	price, err := model.ParsePrice(d.BidPrice)
	if err != nil {
		return model.Listing{}, fmt.Errorf("decode listing %s: %w", d.ID.Hex(), err)
	}
	l := model.Listing{
		ID:         d.ID.Hex(),
		Number:     d.Number,
		Name:       d.Name,
		BidPrice:   price,
		ImageSrc:   d.ImageSrc,
		ImageAlt:   d.ImageAlt,
		Details:    d.Details,
		BidHistory: make([]model.Bid, 0, len(d.BidHistory)),
		EndDate:    d.EndDate,
	}
	for _, b := range d.BidHistory {
		p, err := model.ParsePrice(b.BidPrice)
		if err != nil {
			return model.Listing{}, fmt.Errorf("decode bid history of %s: %w", d.ID.Hex(), err)
		}
		l.BidHistory = append(l.BidHistory, model.Bid{Username: b.Username, BidPrice: p})
	}
	return l, nil
}

// ConnectMongo dials uri and checks that dbName is reachable
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Client, error) {
	clientOpts := options.Client().ApplyURI(uri)
	clientOpts.SetSocketTimeout(mgSocketTimeout)
	clientOpts.SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		utils.Error("fail to connect mongo db", map[string]any{"db": dbName, "error": err.Error()})
		return nil, err
	}

	if _, err := client.Database(dbName).ListCollectionNames(ctx, bson.D{}); err != nil {
		utils.Error("fail to test mongo db", map[string]any{"db": dbName, "error": err.Error()})
		_ = client.Disconnect(ctx)
		return nil, err
	}

	utils.Info("mongo connected", map[string]any{"db": dbName})
	return client, nil
}

// MongoRepo is a MongoDB-backed ListingStore and UserStore. Listings carry a
// version counter; AtomicUpdate replaces the document only if the version it
// read is still current and retries otherwise.
type MongoRepo struct {
	products *mongo.Collection
	users    *mongo.Collection
}

// NewMongoRepo creates a repository over the products and users collections of db
func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		products: db.Collection(productsCollection),
		users:    db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique and lookup indexes the repository relies on
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "bidHistory.username", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	_, err = r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("listing %s: %w", id, biddingerrors.ErrListingNotFound)
	}
	return oid, nil
}

func (r *MongoRepo) findDoc(ctx context.Context, oid primitive.ObjectID) (listingDoc, error) {
	var doc listingDoc
	err := r.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return listingDoc{}, fmt.Errorf("listing %s: %w", oid.Hex(), biddingerrors.ErrListingNotFound)
	}
	if err != nil {
		return listingDoc{}, fmt.Errorf("find listing %s: %w", oid.Hex(), err)
	}
	return doc, nil
}

func (r *MongoRepo) findMany(ctx context.Context, filter bson.M) ([]model.Listing, error) {
	cur, err := r.products.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []listingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}

	out := make([]model.Listing, 0, len(docs))
	for _, d := range docs {
		l, err := d.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// Get retrieves a listing by its hex ObjectID
func (r *MongoRepo) Get(ctx context.Context, id string) (model.Listing, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return model.Listing{}, err
	}
	doc, err := r.findDoc(ctx, oid)
	if err != nil {
		return model.Listing{}, err
	}
	return doc.toModel()
}

// List returns every listing
func (r *MongoRepo) List(ctx context.Context) ([]model.Listing, error) {
	return r.findMany(ctx, bson.M{})
}

// Insert stores a listing if no other listing uses its numeric id
func (r *MongoRepo) Insert(ctx context.Context, listing model.Listing) (model.Listing, error) {
	err := r.products.FindOne(ctx, bson.M{"id": listing.Number}).Err()
	if err == nil {
		return model.Listing{}, fmt.Errorf("insert listing %d: %w", listing.Number, biddingerrors.ErrConflict)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return model.Listing{}, fmt.Errorf("check listing %d: %w", listing.Number, err)
	}

	doc := toListingDoc(listing)
	doc.ID = primitive.NewObjectID()
	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Listing{}, fmt.Errorf("insert listing %d: %w", listing.Number, biddingerrors.ErrConflict)
		}
		return model.Listing{}, fmt.Errorf("insert listing %d: %w", listing.Number, err)
	}
	return doc.toModel()
}

// AtomicUpdate runs a compare-and-swap on the listing's version field
func (r *MongoRepo) AtomicUpdate(ctx context.Context, id string, mutate Mutator) (model.Listing, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return model.Listing{}, err
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		doc, err := r.findDoc(ctx, oid)
		if err != nil {
			return model.Listing{}, err
		}
		current, err := doc.toModel()
		if err != nil {
			return model.Listing{}, err
		}

		working := current.Clone()
		if err := mutate(&working); err != nil {
			return model.Listing{}, err
		}
		working.ID = current.ID
		working.Number = current.Number

		next := toListingDoc(working)
		next.ID = oid
		next.Version = doc.Version + 1

		// documents written before versioning have no version field
		filter := bson.M{"_id": oid, "version": doc.Version}
		if doc.Version == 0 {
			filter = bson.M{"_id": oid, "version": bson.M{"$in": bson.A{0, nil}}}
		}

		res, err := r.products.ReplaceOne(ctx, filter, next)
		if err != nil {
			return model.Listing{}, fmt.Errorf("replace listing %s: %w", id, err)
		}
		if res.MatchedCount == 1 {
			return working, nil
		}
		utils.Debug("listing version moved, retrying update", map[string]any{"listing_id": id, "attempt": attempt + 1})
	}
	return model.Listing{}, fmt.Errorf("update listing %s: %w", id, errContention)
}

// Delete removes a listing by its hex ObjectID
func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete listing %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete listing %s: %w", id, biddingerrors.ErrListingNotFound)
	}
	return nil
}

// QueryByBidder returns listings with at least one bid by username
func (r *MongoRepo) QueryByBidder(ctx context.Context, username string) ([]model.Listing, error) {
	return r.findMany(ctx, bson.M{"bidHistory.username": username})
}

// CreateUser inserts a user unless the username or email is taken
func (r *MongoRepo) CreateUser(ctx context.Context, user model.User) error {
	err := r.users.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": user.Email},
		bson.M{"username": user.Username},
	}}).Err()
	if err == nil {
		return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrUserExists)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("check user %s: %w", user.Username, err)
	}

	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.PasswordHash,
		CreatedAt: user.CreatedAt,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrUserExists)
		}
		return fmt.Errorf("insert user %s: %w", user.Username, err)
	}
	return nil
}

func (r *MongoRepo) findUser(ctx context.Context, filter bson.M) (model.User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.User{}, fmt.Errorf("find user: %w", biddingerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return model.User{
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.Password,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

// GetUserByEmail looks a user up by email
func (r *MongoRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

// GetUserByUsername looks a user up by username
func (r *MongoRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return r.findUser(ctx, bson.M{"username": username})
}
