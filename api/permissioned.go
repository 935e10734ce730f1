package api

import (
	"context"
	"fmt"
	"reflect"

	"github.com/filecoin-project/go-jsonrpc/auth"
)

var AllPermissions = []auth.Permission{"read", "write", "admin"}
var defaultPerms = []auth.Permission{"read"}

// PermissionProxy fills the Internal func fields of out with the methods of in,
// guarded by the permission in their perm tag.
func PermissionProxy(in interface{}, out interface{}) {
	ra := reflect.ValueOf(in)
	internals := internalStructs(reflect.ValueOf(out).Elem())
	for i := 0; i < ra.NumMethod(); i++ {
		methodName := ra.Type().Method(i).Name
		for _, rint := range internals {
			field, exists := rint.Type().FieldByName(methodName)
			if !exists {
				continue
			}

			requiredPerm := field.Tag.Get("perm")
			if requiredPerm == "" {
				panic("missing 'perm' tag on " + field.Name) // ok
			}

			fn := ra.Method(i)
			rint.FieldByName(methodName).Set(reflect.MakeFunc(field.Type, func(args []reflect.Value) (results []reflect.Value) {
				ctx := args[0].Interface().(context.Context)
				if auth.HasPerm(ctx, defaultPerms, auth.Permission(requiredPerm)) {
					return fn.Call(args)
				}

				err := fmt.Errorf("missing permission to invoke '%s' (need '%s')", methodName, requiredPerm)
				rerr := reflect.ValueOf(&err).Elem()
				if fn.Type().NumOut() == 2 {
					return []reflect.Value{
						reflect.Zero(fn.Type().Out(0)),
						rerr,
					}
				}
				return []reflect.Value{rerr}
			}))
		}
	}
}

func internalStructs(v reflect.Value) []reflect.Value {
	var res []reflect.Value
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if v.Type().Field(i).Name == "Internal" {
			res = append(res, field)
			continue
		}
		if field.Kind() == reflect.Struct {
			res = append(res, internalStructs(field)...)
		}
	}
	return res
}
