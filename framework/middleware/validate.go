package middleware

import (
	"github.com/km-arc/armature/framework/dispatch"
	"github.com/km-arc/armature/framework/httpkit/validation"
)

// validate checks the parsed request body against the rule schema. A
// failing body never reaches later middleware or the handler.
func validate(rules validation.Rules) dispatch.Middleware {
	return func(c *dispatch.Context, next dispatch.Next) error {
		v := validation.Make(c.BodyStrings(), rules)
		if v.Fails() {
			return dispatch.ErrValidation(v.Errors())
		}
		return next()
	}
}
