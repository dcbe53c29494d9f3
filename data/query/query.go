package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/seventv/common/errors"
	"github.com/socialsync/api/data/model"
	"github.com/socialsync/api/internal/svc/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Query struct {
	mongo mongo.Instance
	c     *cache.Cache
	mx    sync.Map
}

func New(mongoInst mongo.Instance) *Query {
	return &Query{
		mongo: mongoInst,
		c:     cache.New(time.Minute*1, time.Minute*5),
	}
}

func (q *Query) mtx(tag string) *sync.Mutex {
	val, _ := q.mx.LoadOrStore(tag, &sync.Mutex{})
	return val.(*sync.Mutex)
}

func (q *Query) key(tag string) string {
	return fmt.Sprintf("cache:%s", tag)
}

func (q *Query) getFromMemCache(key string, i *model.User) bool {
	v, ok := q.c.Get(key)
	if !ok {
		return false
	}

	u, ok := v.(model.User)
	if !ok {
		return false
	}

	*i = u

	return true
}

func (q *Query) setInMemCache(key string, u model.User) {
	q.c.SetDefault(key, u)
}

// InvalidateUser drops a cached user, mutations call this after writing
func (q *Query) InvalidateUser(userID string) {
	q.c.Delete(q.key("user:" + userID))
}

type QueryResult[T QueriableType] struct {
	items []T
	total int64
	err   error
}

type QueriableType interface {
	model.User | model.Post | model.Message | model.Notification | model.ActivityLog
}

func (qr *QueryResult[T]) setItems(items []T) *QueryResult[T] {
	qr.items = items
	return qr
}

func (qr *QueryResult[T]) setTotal(total int64) *QueryResult[T] {
	qr.total = total
	return qr
}

func (qr *QueryResult[T]) setError(err error) *QueryResult[T] {
	qr.err = err
	return qr
}

func (qr *QueryResult[T]) Error() error {
	return qr.err
}

func (qr *QueryResult[T]) First() (T, error) {
	var dT T

	if qr.err != nil {
		return dT, qr.err
	}
	if len(qr.items) == 0 {
		return dT, errors.ErrNoItems()
	}

	return qr.items[0], nil
}

func (qr *QueryResult[T]) Items() ([]T, error) {
	return qr.items, qr.err
}

func (qr *QueryResult[T]) Total() int64 {
	return qr.total
}

func (qr *QueryResult[T]) Empty() bool {
	return len(qr.items) == 0
}

func find[T QueriableType](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) *QueryResult[T] {
	r := &QueryResult[T]{}
	items := []T{}

	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		zap.S().Errorw("mongo, failed to query", "collection", coll.Name(), "error", err)

		return r.setError(errors.ErrInternalServerError().SetDetail(err.Error()))
	}

	if err := cur.All(ctx, &items); err != nil {
		zap.S().Errorw("mongo, failed to decode", "collection", coll.Name(), "error", err)

		return r.setError(errors.ErrInternalServerError().SetDetail(err.Error()))
	}

	return r.setItems(items).setTotal(int64(len(items)))
}
