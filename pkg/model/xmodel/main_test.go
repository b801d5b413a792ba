package xmodel

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type user struct {
	id   string
	Name string
}

func (u *user) ID() string { return u.id }

func newUser(id, name string) *user { return &user{id: id, Name: name} }
