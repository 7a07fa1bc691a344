// Package dynamo implements store.Gateway on a single DynamoDB table keyed by
// collection (partition) and numeric id (sort).
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kelleyneubauer/rest-between-sets/internal/logging"
	"github.com/kelleyneubauer/rest-between-sets/internal/store"
)

// maxTransactItems is the DynamoDB limit on TransactWriteItems.
const maxTransactItems = 100

// API is the subset of the DynamoDB client the repository calls.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Config selects the table and, for local development, an endpoint override.
type Config struct {
	Table    string
	Region   string
	Endpoint string
}

// record is the stored item shape.
type record struct {
	Collection string `dynamodbav:"collection"`
	ID         int64  `dynamodbav:"id"`
	Data       string `dynamodbav:"data"`
}

// counter holds the last id handed out for a collection.
type counter struct {
	Seq int64 `dynamodbav:"seq"`
}

// Repository is a DynamoDB backed store.Gateway.
type Repository struct {
	client API
	table  string
}

var _ store.Gateway = (*Repository)(nil)

// New builds a client from the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Repository, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewRepository(client, cfg.Table), nil
}

// NewRepository wraps an existing client.
func NewRepository(client API, table string) *Repository {
	return &Repository{client: client, table: table}
}

// EnsureTable creates the table when it does not exist yet.
func (r *Repository) EnsureTable(ctx context.Context) error {
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	if err == nil {
		return nil
	}
	var missing *types.ResourceNotFoundException
	if !errors.As(err, &missing) {
		return fmt.Errorf("describe table %s: %w", r.table, err)
	}

	logging.Info().Str("table", r.table).Msg("creating dynamodb table")
	_, err = r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("collection"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeN},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("collection"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", r.table, err)
	}
	waiter := dynamodb.NewTableExistsWaiter(r.client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = time.Second
		o.MaxDelay = 5 * time.Second
	})
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)}, 2*time.Minute)
}

func key(c store.Collection, id int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"collection": &types.AttributeValueMemberS{Value: string(c)},
		"id":         &types.AttributeValueMemberN{Value: strconv.FormatInt(id, 10)},
	}
}

func counterKey(c store.Collection) map[string]types.AttributeValue {
	return key(store.Collection(string(c)+"#counter"), 0)
}

func (r *Repository) nextID(ctx context.Context, c store.Collection) (int64, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       counterKey(c),
		UpdateExpression:          aws.String("ADD seq :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":one": &types.AttributeValueMemberN{Value: "1"}},
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	var ctr counter
	if err := attributevalue.UnmarshalMap(out.Attributes, &ctr); err != nil {
		return 0, err
	}
	return ctr.Seq, nil
}

// Create implements store.Gateway.
func (r *Repository) Create(ctx context.Context, c store.Collection, data []byte) (int64, error) {
	id, err := r.nextID(ctx, c)
	if err != nil {
		return 0, store.Unavailable(err)
	}
	item, err := attributevalue.MarshalMap(record{Collection: string(c), ID: id, Data: string(data)})
	if err != nil {
		return 0, err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	})
	if err != nil {
		return 0, store.Unavailable(err)
	}
	return id, nil
}

// Get implements store.Gateway.
func (r *Repository) Get(ctx context.Context, c store.Collection, id int64) (store.Document, error) {
	if err := store.CheckKey(c, id); err != nil {
		return store.Document{}, err
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            key(c, id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return store.Document{}, store.Unavailable(err)
	}
	if len(out.Item) == 0 {
		return store.Document{}, store.NotFound(c, id)
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return store.Document{}, fmt.Errorf("decode %s/%d: %w", c, id, err)
	}
	return store.Document{ID: rec.ID, Data: []byte(rec.Data)}, nil
}

// List implements store.Gateway. Queries continue past DynamoDB's own page
// boundaries until one record beyond the limit has been seen.
func (r *Repository) List(ctx context.Context, c store.Collection, opts store.ListOptions) (store.Page, error) {
	after, err := store.DecodeCursor(c, opts.Cursor)
	if err != nil {
		return store.Page{}, err
	}

	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.table),
		KeyConditionExpression: aws.String("#c = :c AND #id > :after"),
		ExpressionAttributeNames: map[string]string{
			"#c":  "collection",
			"#id": "id",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c":     &types.AttributeValueMemberS{Value: string(c)},
			":after": &types.AttributeValueMemberN{Value: strconv.FormatInt(after, 10)},
		},
		ScanIndexForward: aws.Bool(true),
		ConsistentRead:   aws.Bool(true),
	}
	if opts.Limit > 0 {
		in.Limit = aws.Int32(int32(opts.Limit + 1))
	}

	var page store.Page
	for {
		out, err := r.client.Query(ctx, in)
		if err != nil {
			return store.Page{}, store.Unavailable(err)
		}
		var recs []record
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
			return store.Page{}, fmt.Errorf("decode %s page: %w", c, err)
		}
		for _, rec := range recs {
			page.Items = append(page.Items, store.Document{ID: rec.ID, Data: []byte(rec.Data)})
		}
		if len(out.LastEvaluatedKey) == 0 || (opts.Limit > 0 && len(page.Items) > opts.Limit) {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}

	if opts.Limit > 0 && len(page.Items) > opts.Limit {
		page.Items = page.Items[:opts.Limit]
		page.NextCursor = store.EncodeCursor(c, page.Items[opts.Limit-1].ID)
	}
	return page, nil
}

// Update implements store.Gateway.
func (r *Repository) Update(ctx context.Context, c store.Collection, id int64, data []byte) error {
	return r.Apply(ctx, []store.Mutation{store.UpdateOf(c, id, data)})
}

// Delete implements store.Gateway.
func (r *Repository) Delete(ctx context.Context, c store.Collection, id int64) error {
	return r.Apply(ctx, []store.Mutation{store.DeleteOf(c, id)})
}

// Apply writes the mutations with TransactWriteItems. Batches larger than
// the service limit are split, so only each chunk is atomic.
func (r *Repository) Apply(ctx context.Context, muts []store.Mutation) error {
	items := make([]types.TransactWriteItem, 0, len(muts))
	for _, m := range muts {
		if err := store.CheckKey(m.Collection, m.ID); err != nil {
			return err
		}
		item, err := r.transactItem(m)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	for start := 0; start < len(items); start += maxTransactItems {
		end := min(start+maxTransactItems, len(items))
		_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items[start:end],
		})
		if err != nil {
			return r.translateTxError(err, muts[start:end])
		}
	}
	return nil
}

func (r *Repository) transactItem(m store.Mutation) (types.TransactWriteItem, error) {
	switch m.Op {
	case store.OpUpdate:
		return types.TransactWriteItem{Update: &types.Update{
			TableName:                aws.String(r.table),
			Key:                      key(m.Collection, m.ID),
			UpdateExpression:         aws.String("SET #d = :d"),
			ConditionExpression:      aws.String("attribute_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#d": "data", "#id": "id"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":d": &types.AttributeValueMemberS{Value: string(m.Data)},
			},
		}}, nil
	case store.OpDelete:
		return types.TransactWriteItem{Delete: &types.Delete{
			TableName:                aws.String(r.table),
			Key:                      key(m.Collection, m.ID),
			ConditionExpression:      aws.String("attribute_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
		}}, nil
	default:
		return types.TransactWriteItem{}, fmt.Errorf("unsupported mutation %v", m.Op)
	}
}

func (r *Repository) translateTxError(err error, muts []store.Mutation) error {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for i, reason := range canceled.CancellationReasons {
			if i < len(muts) && aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return store.NotFound(muts[i].Collection, muts[i].ID)
			}
		}
		return &store.Error{Kind: store.KindConflict, Err: err}
	}
	return store.Unavailable(err)
}

// Close implements store.Gateway.
func (r *Repository) Close() error { return nil }
