package util

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/pkg/errors"
)

type Datatype int

const (
	DatatypeByte Datatype = iota
	DatatypeInt16
	DatatypeInt24
	DatatypeInt32
	DatatypeInt64
	DatatypeFloat32
	DatatypeFloat64
)

func (d Datatype) byteCount() int {
	switch d {
	case DatatypeByte:
		return 1
	case DatatypeInt16:
		return 2
	case DatatypeInt24:
		return 3
	case DatatypeInt32, DatatypeFloat32:
		return 4
	case DatatypeInt64, DatatypeFloat64:
		return 8
	}
	return -1
}

// BinaryItem describes how one struct field is stored. The index parameter is the position in the data array where
// the item starts, the returned index points to the first byte after the item.
type BinaryItem interface {
	Write(object any, data []byte, index int) (int, error)
	Read(object any, data []byte, index int) (int, error)
	Size(object any) (int, error)
}

type BinarySchema struct {
	Items []BinaryItem // All items of this object schema. They are written and read in the given order.
}

func (b *BinarySchema) Write(object any, data []byte, index int) (int, error) {
	var err error

	for _, item := range b.Items {
		index, err = item.Write(object, data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

// Read fills the fields of the given object, which must be a pointer to a struct.
func (b *BinarySchema) Read(object any, data []byte, index int) (int, error) {
	var err error

	for _, item := range b.Items {
		index, err = item.Read(object, data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

// Size returns the number of bytes Write needs for the given object.
func (b *BinarySchema) Size(object any) (int, error) {
	size := 0
	for _, item := range b.Items {
		itemSize, err := item.Size(object)
		if err != nil {
			return -1, err
		}
		size += itemSize
	}
	return size, nil
}

type BinaryDataItem struct {
	FieldName  string   // Name of the golang struct field.
	BinaryType Datatype // Type this field should be stored to. This has to be compatible with the FieldType.
}

func (b *BinaryDataItem) Write(object any, data []byte, index int) (int, error) {
	field, err := getField(object, b.FieldName)
	if err != nil {
		return -1, err
	}
	return writeBinaryValue(b.BinaryType, b.FieldName, field, data, index)
}

func (b *BinaryDataItem) Read(object any, data []byte, index int) (int, error) {
	field, err := getField(object, b.FieldName)
	if err != nil {
		return -1, err
	}
	return readBinaryValue(b.BinaryType, b.FieldName, field, data, index)
}

func (b *BinaryDataItem) Size(any) (int, error) {
	size := b.BinaryType.byteCount()
	if size < 0 {
		return -1, errors.Errorf("Unsupported datatype %d for field %s", b.BinaryType, b.FieldName)
	}
	return size, nil
}

// BinaryRawCollectionItem represents the simple schema for array of e.g. integers. It also stores the size of the array as 32 bit integer.
type BinaryRawCollectionItem struct {
	FieldName  string   // Name of the golang struct slice.
	BinaryType Datatype // Type this field should be stored to. This has to be compatible with the FieldType.
}

func (b *BinaryRawCollectionItem) Write(object any, data []byte, index int) (int, error) {
	collection, err := getCollectionField(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	binary.LittleEndian.PutUint32(data[index:], uint32(collection.Len()))
	index += 4

	for i := 0; i < collection.Len(); i++ {
		index, err = writeBinaryValue(b.BinaryType, b.FieldName, collection.Index(i), data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func (b *BinaryRawCollectionItem) Read(object any, data []byte, index int) (int, error) {
	collection, err := getCollectionField(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	length, err := readCollectionLength(b.FieldName, data, index)
	if err != nil {
		return -1, err
	}
	index += 4

	slice := reflect.MakeSlice(collection.Type(), length, length)
	collection.Set(slice)

	for i := 0; i < length; i++ {
		index, err = readBinaryValue(b.BinaryType, b.FieldName, slice.Index(i), data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func (b *BinaryRawCollectionItem) Size(object any) (int, error) {
	collection, err := getCollectionField(object, b.FieldName)
	if err != nil {
		return -1, err
	}
	itemSize := b.BinaryType.byteCount()
	if itemSize < 0 {
		return -1, errors.Errorf("Unsupported datatype %d for field %s", b.BinaryType, b.FieldName)
	}
	return 4 + collection.Len()*itemSize, nil
}

// BinaryCollectionItem represents the simple schema for array of structs.
type BinaryCollectionItem struct {
	FieldName  string       // Name of the golang struct slice.
	ItemSchema BinarySchema // Schema of the item in this collection
}

func (b *BinaryCollectionItem) Write(object any, data []byte, index int) (int, error) {
	collection, err := getCollectionField(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	binary.LittleEndian.PutUint32(data[index:], uint32(collection.Len()))
	index += 4

	for i := 0; i < collection.Len(); i++ {
		index, err = b.ItemSchema.Write(collection.Index(i).Interface(), data, index)
		if err != nil {
			return -1, err
		}
	}

	return index, nil
}

func (b *BinaryCollectionItem) Read(object any, data []byte, index int) (int, error) {
	collection, err := getCollectionField(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	length, err := readCollectionLength(b.FieldName, data, index)
	if err != nil {
		return -1, err
	}
	index += 4

	slice := reflect.MakeSlice(collection.Type(), length, length)
	collection.Set(slice)

	for i := 0; i < length; i++ {
		index, err = b.ItemSchema.Read(slice.Index(i).Addr().Interface(), data, index)
		if err != nil {
			return -1, errors.Wrapf(err, "Unable to read item %d of collection %s", i, b.FieldName)
		}
	}

	return index, nil
}

func (b *BinaryCollectionItem) Size(object any) (int, error) {
	collection, err := getCollectionField(object, b.FieldName)
	if err != nil {
		return -1, err
	}

	size := 4
	for i := 0; i < collection.Len(); i++ {
		itemSize, err := b.ItemSchema.Size(collection.Index(i).Interface())
		if err != nil {
			return -1, err
		}
		size += itemSize
	}
	return size, nil
}

func getField(object any, fieldName string) (reflect.Value, error) {
	objectValue := reflect.Indirect(reflect.ValueOf(object))
	if objectValue.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Errorf("Unsupported object type %v for field %s, only structs and pointers to structs are supported", objectValue.Kind(), fieldName)
	}

	field := objectValue.FieldByName(fieldName)
	if !field.IsValid() {
		return reflect.Value{}, errors.Errorf("Field %s does not exist on type %v", fieldName, objectValue.Type())
	}
	return field, nil
}

func getCollectionField(object any, fieldName string) (reflect.Value, error) {
	field, err := getField(object, fieldName)
	if err != nil {
		return reflect.Value{}, err
	}
	if field.Kind() != reflect.Slice {
		return reflect.Value{}, errors.Errorf("Unsupported type %v of collection field %s, only slices are supported", field.Kind(), fieldName)
	}
	return field, nil
}

func readCollectionLength(fieldName string, data []byte, index int) (int, error) {
	if index+4 > len(data) {
		return -1, errors.Errorf("Unexpected end of data reading length of collection %s at index %d", fieldName, index)
	}
	length := int(binary.LittleEndian.Uint32(data[index:]))
	// Every item takes at least one byte
	if length > len(data)-index-4 {
		return -1, errors.Errorf("Collection %s at index %d has %d items but only %d bytes remain", fieldName, index, length, len(data)-index-4)
	}
	return length, nil
}

func writeBinaryValue(binaryType Datatype, fieldName string, value reflect.Value, data []byte, index int) (int, error) {
	switch binaryType {
	case DatatypeByte:
		data[index] = byte(getUint64FromValue(value))
	case DatatypeInt16:
		binary.LittleEndian.PutUint16(data[index:], uint16(getUint64FromValue(value)))
	case DatatypeInt24:
		v := getUint64FromValue(value)
		data[index] = byte(v)
		data[index+1] = byte(v >> 8)
		data[index+2] = byte(v >> 16)
	case DatatypeInt32:
		binary.LittleEndian.PutUint32(data[index:], uint32(getUint64FromValue(value)))
	case DatatypeInt64:
		binary.LittleEndian.PutUint64(data[index:], getUint64FromValue(value))
	case DatatypeFloat32:
		binary.LittleEndian.PutUint32(data[index:], math.Float32bits(float32(value.Float())))
	case DatatypeFloat64:
		binary.LittleEndian.PutUint64(data[index:], math.Float64bits(value.Float()))
	default:
		return -1, errors.Errorf("Unsupported datatype %d for field %s", binaryType, fieldName)
	}
	return index + binaryType.byteCount(), nil
}

func readBinaryValue(binaryType Datatype, fieldName string, value reflect.Value, data []byte, index int) (int, error) {
	byteCount := binaryType.byteCount()
	if byteCount < 0 {
		return -1, errors.Errorf("Unsupported datatype %d for field %s", binaryType, fieldName)
	}
	if index+byteCount > len(data) {
		return -1, errors.Errorf("Unexpected end of data reading field %s at index %d", fieldName, index)
	}

	d := data[index:]
	switch binaryType {
	case DatatypeByte:
		setIntegerValue(value, uint64(d[0]), 8)
	case DatatypeInt16:
		setIntegerValue(value, uint64(binary.LittleEndian.Uint16(d)), 16)
	case DatatypeInt24:
		setIntegerValue(value, uint64(uint32(d[0])|uint32(d[1])<<8|uint32(d[2])<<16), 24)
	case DatatypeInt32:
		setIntegerValue(value, uint64(binary.LittleEndian.Uint32(d)), 32)
	case DatatypeInt64:
		setIntegerValue(value, binary.LittleEndian.Uint64(d), 64)
	case DatatypeFloat32:
		value.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(d))))
	case DatatypeFloat64:
		value.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(d)))
	}

	return index + byteCount, nil
}

// setIntegerValue sets the raw bits to the value. Signed values are sign extended from the stored bit width, so
// negative numbers survive the round trip.
func setIntegerValue(value reflect.Value, raw uint64, bits uint) {
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		shift := 64 - bits
		value.SetInt(int64(raw<<shift) >> shift)
	default:
		value.SetUint(raw)
	}
}

func getUint64FromValue(value reflect.Value) uint64 {
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(value.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.Uint()
	}
	LogFatalBug("Unsupported value type %s to convert to uint", value.Kind().String())
	return 0
}
