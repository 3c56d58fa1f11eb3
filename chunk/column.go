package chunk

import (
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

type Kind uint8

const (
	KindUInt32 Kind = iota
	KindInt64
	KindFloat64
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindUInt32:
		return "uint32"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

var ErrUnknownKind = errors.New("unknown column kind")

func ParseKind(s string) (Kind, error) {
	switch s {
	case "uint32":
		return KindUInt32, nil
	case "int64":
		return KindInt64, nil
	case "float64":
		return KindFloat64, nil
	case "string":
		return KindString, nil
	default:
		return 0, errors.WithMessage(ErrUnknownKind, s)
	}
}

//Column is one equal-length vector of a chunk, read as a whole by operators
type Column interface {
	Kind() Kind
	Len() int
	//appendText parse one text field and append it, used by Builder
	appendText(field string) error
}

type UInt32Column struct {
	Data []uint32
}

func (c *UInt32Column) Kind() Kind { return KindUInt32 }
func (c *UInt32Column) Len() int   { return len(c.Data) }

func (c *UInt32Column) appendText(field string) error {
	value, err := cast.ToUint32E(field)
	if err != nil {
		return err
	}
	c.Data = append(c.Data, value)
	return nil
}

type Int64Column struct {
	Data []int64
}

func (c *Int64Column) Kind() Kind { return KindInt64 }
func (c *Int64Column) Len() int   { return len(c.Data) }

func (c *Int64Column) appendText(field string) error {
	value, err := cast.ToInt64E(field)
	if err != nil {
		return err
	}
	c.Data = append(c.Data, value)
	return nil
}

type Float64Column struct {
	Data []float64
}

func (c *Float64Column) Kind() Kind { return KindFloat64 }
func (c *Float64Column) Len() int   { return len(c.Data) }

func (c *Float64Column) appendText(field string) error {
	value, err := cast.ToFloat64E(field)
	if err != nil {
		return err
	}
	c.Data = append(c.Data, value)
	return nil
}

type StringColumn struct {
	Data []string
}

func (c *StringColumn) Kind() Kind { return KindString }
func (c *StringColumn) Len() int   { return len(c.Data) }

func (c *StringColumn) appendText(field string) error {
	c.Data = append(c.Data, field)
	return nil
}

func newColumn(kind Kind) Column {
	switch kind {
	case KindUInt32:
		return &UInt32Column{}
	case KindInt64:
		return &Int64Column{}
	case KindFloat64:
		return &Float64Column{}
	case KindString:
		return &StringColumn{}
	default:
		return nil
	}
}
