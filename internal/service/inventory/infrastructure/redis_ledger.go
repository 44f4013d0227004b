package infrastructure

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"storefront/internal/service/inventory/domain"
)

// Products live in one hash per SKU; the decrement script gives the same
// check-and-set semantics as the guarded SQL UPDATE.
var decrementScript = redis.NewScript(`
-- KEYS[1]: product hash, e.g. stock:{SKU123}
-- ARGV[1]: quantity to subtract
if redis.call('exists', KEYS[1]) == 0 then
    return -1
end
local qty = tonumber(redis.call('hget', KEYS[1], 'qty'))
if qty < tonumber(ARGV[1]) then
    return 0
end
redis.call('hincrby', KEYS[1], 'qty', -tonumber(ARGV[1]))
return 1
`)

var incrementScript = redis.NewScript(`
if redis.call('exists', KEYS[1]) == 0 then
    return -1
end
redis.call('hincrby', KEYS[1], 'qty', tonumber(ARGV[1]))
return 1
`)

// RedisLedger is the Redis StockLedger backend.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) (*RedisLedger, error) {
	// Fail at construction, not on the first reservation, if the scripts
	// cannot be loaded.
	ctx := context.Background()
	if err := decrementScript.Load(ctx, client).Err(); err != nil {
		return nil, errors.Wrap(err, "load decrement script")
	}
	if err := incrementScript.Load(ctx, client).Err(); err != nil {
		return nil, errors.Wrap(err, "load increment script")
	}
	return &RedisLedger{client: client}, nil
}

func stockKey(sku string) string {
	return fmt.Sprintf("stock:{%s}", sku)
}

func (l *RedisLedger) Get(ctx context.Context, sku string) (*domain.Product, error) {
	fields, err := l.client.HGetAll(ctx, stockKey(sku)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrUnknownSKU
	}
	price, _ := strconv.ParseFloat(fields["price"], 64)
	qty, _ := strconv.Atoi(fields["qty"])
	return &domain.Product{SKU: sku, Name: fields["name"], Price: price, Qty: qty}, nil
}

func (l *RedisLedger) Create(ctx context.Context, p *domain.Product) error {
	ok, err := l.client.HSetNX(ctx, stockKey(p.SKU), "sku", p.SKU).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrDuplicateSKU
	}
	return l.client.HSet(ctx, stockKey(p.SKU), "name", p.Name, "price", p.Price, "qty", p.Qty).Err()
}

func (l *RedisLedger) Update(ctx context.Context, p *domain.Product) error {
	exists, err := l.client.Exists(ctx, stockKey(p.SKU)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return domain.ErrUnknownSKU
	}
	return l.client.HSet(ctx, stockKey(p.SKU), "name", p.Name, "price", p.Price, "qty", p.Qty).Err()
}

func (l *RedisLedger) Decrement(ctx context.Context, sku string, qty int) error {
	return l.runQtyScript(ctx, decrementScript, sku, qty)
}

func (l *RedisLedger) Increment(ctx context.Context, sku string, qty int) error {
	return l.runQtyScript(ctx, incrementScript, sku, qty)
}

func (l *RedisLedger) runQtyScript(ctx context.Context, script *redis.Script, sku string, qty int) error {
	result, err := script.Run(ctx, l.client, []string{stockKey(sku)}, qty).Result()
	if err != nil {
		return err
	}
	code, ok := result.(int64)
	if !ok {
		return errors.Errorf("unexpected result type from stock script: %T", result)
	}
	switch code {
	case 1:
		return nil
	case 0:
		return domain.ErrInsufficientStock
	case -1:
		return domain.ErrUnknownSKU
	default:
		return errors.Errorf("unknown result code from stock script: %d", code)
	}
}
