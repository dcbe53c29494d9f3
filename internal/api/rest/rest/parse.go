package rest

import (
	"strconv"

	"github.com/seventv/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Key string

const (
	ClientIPKey  Key = "CLIENT_IP"
	StartedAtKey Key = "STARTED_AT"
)

type Param struct {
	v interface{}
}

func (c *Ctx) UserValue(key Key) *Param {
	return &Param{c.RequestCtx.UserValue(string(key))}
}

// String returns a string value of the param
func (p *Param) String() (string, bool) {
	s, ok := p.v.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}

// Int parses the param into an int
func (p *Param) Int() (int, error) {
	s, ok := p.String()
	if !ok {
		return 0, errors.ErrEmptyField()
	}

	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.ErrBadInt().SetDetail(err.Error())
	}

	return i, nil
}

// ObjectID parses the param into an Object ID
func (p *Param) ObjectID() (primitive.ObjectID, error) {
	s, _ := p.String()
	if s == "" || !primitive.IsValidObjectID(s) {
		return primitive.NilObjectID, errors.ErrBadObjectID()
	}

	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, errors.ErrBadObjectID().SetDetail(err.Error())
	}

	return oid, nil
}

// QueryInt parses an optional integer query argument, returning def when absent
func (c *Ctx) QueryInt(key string, def int) (int, APIError) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}

	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.ErrBadInt().SetDetail("%s: %s", key, err.Error())
	}

	return i, nil
}
