// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Viper reads the value stored under key in v and decodes it into T.
//
// Decoding is weakly typed so values coming from environment variables,
// which are always strings, still decode into numbers, bools and
// [time.Duration]s. Comma separated strings decode into slices. Keys
// which are not set, or set to an empty string, are treated as unset.
func Viper[T any](v *viper.Viper, key string) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		if !v.IsSet(key) {
			return Value[T]{}, nil
		}

		raw := v.Get(key)
		if s, ok := raw.(string); raw == nil || (ok && s == "") {
			return Value[T]{}, nil
		}

		var out T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &out,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
		})
		if err != nil {
			return Value[T]{}, err
		}

		err = dec.Decode(raw)
		if err != nil {
			return Value[T]{}, InvalidValueError{Raw: fmt.Sprint(raw), Cause: err}
		}
		return ValueOf(out), nil
	})
}
