package dynamo

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelleyneubauer/rest-between-sets/internal/store"
	"github.com/kelleyneubauer/rest-between-sets/internal/store/storetest"
)

// fakeClient understands exactly the expressions Repository sends.
type fakeClient struct {
	mu      sync.Mutex
	created bool
	items   map[string]map[int64]map[string]types.AttributeValue
	// pageCap mimics the 1MB response cap by truncating Query pages.
	pageCap int
	queries int
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[int64]map[string]types.AttributeValue), pageCap: 2}
}

func parseKey(k map[string]types.AttributeValue) (string, int64) {
	c := k["collection"].(*types.AttributeValueMemberS).Value
	id, _ := strconv.ParseInt(k["id"].(*types.AttributeValueMemberN).Value, 10, 64)
	return c, id
}

func (f *fakeClient) lookup(k map[string]types.AttributeValue) (map[string]types.AttributeValue, bool) {
	c, id := parseKey(k)
	item, ok := f.items[c][id]
	return item, ok
}

func (f *fakeClient) put(item map[string]types.AttributeValue) {
	c, id := parseKey(item)
	if f.items[c] == nil {
		f.items[c] = make(map[int64]map[string]types.AttributeValue)
	}
	f.items[c][id] = item
}

func (f *fakeClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, _ := f.lookup(in.Key)
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.lookup(in.Item); exists {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	f.put(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.lookup(in.Key)
	seq := int64(0)
	if ok {
		seq, _ = strconv.ParseInt(item["seq"].(*types.AttributeValueMemberN).Value, 10, 64)
	}
	seq++
	next := map[string]types.AttributeValue{
		"collection": in.Key["collection"],
		"id":         in.Key["id"],
		"seq":        &types.AttributeValueMemberN{Value: strconv.FormatInt(seq, 10)},
	}
	f.put(next)
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{"seq": next["seq"]}}, nil
}

func (f *fakeClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++

	c := in.ExpressionAttributeValues[":c"].(*types.AttributeValueMemberS).Value
	after, _ := strconv.ParseInt(in.ExpressionAttributeValues[":after"].(*types.AttributeValueMemberN).Value, 10, 64)
	if in.ExclusiveStartKey != nil {
		_, after = parseKey(in.ExclusiveStartKey)
	}

	ids := make([]int64, 0)
	for id := range f.items[c] {
		if id > after {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	limit := len(ids)
	if in.Limit != nil && int(*in.Limit) < limit {
		limit = int(*in.Limit)
	}
	if f.pageCap > 0 && f.pageCap < limit {
		limit = f.pageCap
	}

	out := &dynamodb.QueryOutput{}
	for _, id := range ids[:limit] {
		out.Items = append(out.Items, f.items[c][id])
	}
	if limit < len(ids) || (in.Limit != nil && limit == int(*in.Limit) && limit > 0) {
		if limit > 0 {
			out.LastEvaluatedKey = key(store.Collection(c), ids[limit-1])
		}
	}
	return out, nil
}

func (f *fakeClient) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	failed := false
	for i, item := range in.TransactItems {
		reasons[i].Code = aws.String("None")
		var k map[string]types.AttributeValue
		if item.Update != nil {
			k = item.Update.Key
		} else {
			k = item.Delete.Key
		}
		if _, ok := f.lookup(k); !ok {
			reasons[i].Code = aws.String("ConditionalCheckFailed")
			failed = true
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{CancellationReasons: reasons}
	}

	for _, item := range in.TransactItems {
		if item.Update != nil {
			existing, _ := f.lookup(item.Update.Key)
			updated := make(map[string]types.AttributeValue, len(existing))
			for k, v := range existing {
				updated[k] = v
			}
			updated["data"] = item.Update.ExpressionAttributeValues[":d"]
			f.put(updated)
			continue
		}
		c, id := parseKey(item.Delete.Key)
		delete(f.items[c], id)
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *fakeClient) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.created {
		return nil, &types.ResourceNotFoundException{Message: aws.String("no table")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *fakeClient) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = true
	return &dynamodb.CreateTableOutput{}, nil
}

func TestRepositoryGateway(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Gateway {
		return NewRepository(newFakeClient(), "documents")
	})
}

func TestListFollowsLastEvaluatedKey(t *testing.T) {
	client := newFakeClient()
	repo := NewRepository(client, "documents")
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, store.Movements, []byte(`{}`))
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, store.Movements, store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.GreaterOrEqual(t, client.queries, 3, "capped pages should be followed")
}

func TestApplyReportsMissingRecord(t *testing.T) {
	repo := NewRepository(newFakeClient(), "documents")
	ctx := context.Background()
	id, err := repo.Create(ctx, store.Exercises, []byte(`{}`))
	require.NoError(t, err)

	err = repo.Apply(ctx, []store.Mutation{
		store.UpdateOf(store.Exercises, id, []byte(`{"a":1}`)),
		store.DeleteOf(store.Movements, 77),
	})
	var se *store.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, store.KindNotFound, se.Kind)
	assert.Equal(t, store.Movements, se.Collection)
	assert.Equal(t, int64(77), se.ID)
}

func TestEnsureTableCreatesOnce(t *testing.T) {
	client := newFakeClient()
	repo := NewRepository(client, "documents")
	require.NoError(t, repo.EnsureTable(context.Background()))
	assert.True(t, client.created)
	require.NoError(t, repo.EnsureTable(context.Background()))
}
