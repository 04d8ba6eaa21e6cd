package cerr

import (
	"github.com/apex/log"
	"github.com/cockroachdb/errors"
)

type F = map[string]interface{}

// Context accumulates structured fields that are attached to the error it eventually builds,
// so that the fields survive up to the point where the error is logged
type Context struct {
	fields F
}

type Wrapper struct {
	ctx   Context
	cause error
}

type fieldsError struct {
	cause  error
	fields F
}

func (f *fieldsError) Error() string { return f.cause.Error() }
func (f *fieldsError) Unwrap() error { return f.cause }

func Field(key string, value interface{}) Context {
	return Context{}.Field(key, value)
}

func Fields(fields F) Context {
	return Context{}.Fields(fields)
}

func Wrap(err error) Wrapper {
	return Context{}.Wrap(err)
}

func Error(msg string) error {
	return Context{}.Error(msg)
}

func (c Context) Field(key string, value interface{}) Context {
	return c.Fields(F{key: value})
}

func (c Context) Fields(fields F) Context {
	merged := make(F, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return Context{fields: merged}
}

func (c Context) Wrap(err error) Wrapper {
	return Wrapper{
		ctx:   c,
		cause: err,
	}
}

func (c Context) Error(msg string) error {
	return c.attach(errors.NewWithDepth(1, msg))
}

func (w Wrapper) Error(msg string) error {
	if w.cause == nil {
		return w.ctx.attach(errors.NewWithDepth(1, msg))
	}

	return w.ctx.attach(errors.WrapWithDepth(1, w.cause, msg))
}

func (c Context) attach(err error) error {
	if len(c.fields) == 0 {
		return err
	}

	return &fieldsError{
		cause:  err,
		fields: c.fields,
	}
}

// CollectFields walks the whole error chain, outer fields win over inner ones
func CollectFields(err error) F {
	collected := F{}
	chain := []*fieldsError{}

	for current := err; current != nil; current = errors.UnwrapOnce(current) {
		if withFields, ok := current.(*fieldsError); ok {
			chain = append(chain, withFields)
		}
	}

	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].fields {
			collected[k] = v
		}
	}

	return collected
}

func Log(err error) {
	if err == nil {
		return
	}

	log.WithFields(log.Fields(CollectFields(err))).
		WithError(err).
		Error(err.Error())
}
