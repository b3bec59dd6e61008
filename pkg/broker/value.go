package broker

import (
	"bytes"
	"encoding/json"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"modbusbridge/pkg/runtime"
	"strconv"
)

type setBody struct {
	Value interface{} `mapstructure:"value"`
}

type getBody struct {
	ReplyTo string `mapstructure:"replyto"`
}

func decodeBody(payload []byte) (interface{}, error) {
	var body interface{}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	d := json.NewDecoder(bytes.NewReader(payload))
	d.UseNumber()
	if err := d.Decode(&body); err != nil {
		return nil, errors.Wrap(ErrBadBody, err.Error())
	}
	return body, nil
}

// singleValue unwraps {"value":x} and returns anything else as is.
func singleValue(body interface{}) (interface{}, error) {
	m, ok := body.(map[string]interface{})
	if !ok {
		return body, nil
	}
	var sb setBody
	if err := mapstructure.Decode(m, &sb); err != nil {
		return nil, errors.Wrap(ErrBadBody, err.Error())
	}
	if sb.Value == nil {
		return nil, errors.Wrap(ErrBadBody, `missing "value"`)
	}
	return sb.Value, nil
}

func replyTo(payload []byte) (string, error) {
	body, err := decodeBody(payload)
	if err != nil {
		return "", err
	}
	m, ok := body.(map[string]interface{})
	if !ok {
		return "", ErrNoReplyTopic
	}
	var gb getBody
	if err := mapstructure.Decode(m, &gb); err != nil {
		return "", errors.Wrap(ErrBadBody, err.Error())
	}
	if len(gb.ReplyTo) == 0 {
		return "", ErrNoReplyTopic
	}
	return gb.ReplyTo, nil
}

// ParseValue turns a decoded JSON scalar into a tagged value. Integers are
// unsigned unless negative; anything with a fraction or exponent is a float.
func ParseValue(v interface{}) (runtime.Value, error) {
	switch t := v.(type) {
	case bool:
		return runtime.Bool(t), nil
	case json.Number:
		s := t.String()
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return runtime.Unsigned(u), nil
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return runtime.Signed(i), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return runtime.Value{}, errors.Wrapf(ErrBadBody, "number %q", s)
		}
		return runtime.Float(f), nil
	case float64:
		return runtime.Float(t), nil
	case int:
		if t < 0 {
			return runtime.Signed(int64(t)), nil
		}
		return runtime.Unsigned(uint64(t)), nil
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return runtime.Bool(b), nil
		}
		return ParseValue(json.Number(t))
	}
	return runtime.Value{}, errors.Wrapf(ErrBadBody, "unsupported value %v", v)
}
