package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/config"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no document matches the external id.
var ErrNotFound = errors.New("document not found")

// MongoRepository stores products, orders and the stock audit trail. Documents
// are addressed by their application-assigned "id" field, never by _id.
type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig

	products *mongo.Collection
	orders   *mongo.Collection
	audit    *mongo.Collection
}

// NewMongoRepository builds the client without waiting for a server: the
// driver dials on the first operation.
func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, err
	}

	return newMongoRepository(client, client.Database(cfg.Database), cfg), nil
}

func newMongoRepository(client *mongo.Client, db *mongo.Database, cfg *config.MongoDBConfig) *MongoRepository {
	return &MongoRepository{
		client:   client,
		database: db,
		config:   cfg,
		products: db.Collection(cfg.ProductsCollection),
		orders:   db.Collection(cfg.OrdersCollection),
		audit:    db.Collection(cfg.AuditCollection),
	}
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique id indexes and the order listing index.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := m.products.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("failed to create product index: %w", err)
	}
	if _, err := m.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique,
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	if _, err := m.audit.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create audit index: %w", err)
	}
	return nil
}

// Products

func (m *MongoRepository) ListProducts(ctx context.Context) ([]*models.Product, error) {
	cursor, err := m.products.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]*models.Product, 0)
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (m *MongoRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := m.products.FindOne(ctx, bson.M{"id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (m *MongoRepository) InsertProduct(ctx context.Context, product *models.Product) error {
	_, err := m.products.InsertOne(ctx, product)
	return err
}

func (m *MongoRepository) UpdateProduct(ctx context.Context, id string, fields map[string]interface{}, at time.Time) (*models.Product, error) {
	set := bson.M{"updatedAt": at}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := m.products.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (m *MongoRepository) DeleteProduct(ctx context.Context, id string) error {
	res, err := m.products.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementStock applies a blind $inc of delta to the product's stock.
func (m *MongoRepository) IncrementStock(ctx context.Context, id string, delta int) error {
	res, err := m.products.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{
			"$inc": bson.M{"stock": delta},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStockIfAvailable takes qty units only while stock >= qty. It
// reports false when the product is gone or no longer has enough units.
func (m *MongoRepository) DecrementStockIfAvailable(ctx context.Context, id string, qty int) (bool, error) {
	res, err := m.products.UpdateOne(ctx,
		bson.M{"id": id, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Orders

func (m *MongoRepository) ListOrders(ctx context.Context) ([]*models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := m.orders.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]*models.Order, 0)
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (m *MongoRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := m.orders.FindOne(ctx, bson.M{"id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (m *MongoRepository) InsertOrder(ctx context.Context, order *models.Order) error {
	_, err := m.orders.InsertOne(ctx, order)
	return err
}

func (m *MongoRepository) UpdateOrderStatus(ctx context.Context, id string, status models.Status, at time.Time) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := m.orders.FindOneAndUpdate(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": at}},
		opts,
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ReplaceAll wipes both collections and inserts the given documents.
func (m *MongoRepository) ReplaceAll(ctx context.Context, products []*models.Product, orders []*models.Order) error {
	if _, err := m.products.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	if _, err := m.orders.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}

	if len(products) > 0 {
		docs := make([]interface{}, len(products))
		for i, p := range products {
			docs[i] = p
		}
		if _, err := m.products.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("failed to insert products: %w", err)
		}
	}

	if len(orders) > 0 {
		docs := make([]interface{}, len(orders))
		for i, o := range orders {
			docs[i] = o
		}
		if _, err := m.orders.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("failed to insert orders: %w", err)
		}
	}

	return nil
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	Service   string    `bson:"service" json:"service"`
	Action    string    `bson:"action" json:"action"`
	EntityID  string    `bson:"entity_id" json:"entity_id"`
	Data      bson.M    `bson:"data" json:"data"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, log *AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	_, err := m.audit.InsertOne(ctx, log)
	return err
}

func (m *MongoRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*AuditLog, error) {
	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := m.audit.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []*AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}
