package lpp

import (
	"fmt"
	"sort"
)

// Shape is the structural category of a decoded value.
type Shape uint8

const (
	ShapeScalar Shape = iota
	ShapeVector3
	ShapeGeoPosition2D
	ShapeGeoPosition3D
	ShapeColor3
	ShapeNodeId
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeVector3:
		return "vector3"
	case ShapeGeoPosition2D:
		return "gps2d"
	case ShapeGeoPosition3D:
		return "gps3d"
	case ShapeColor3:
		return "color3"
	case ShapeNodeId:
		return "node_id"
	}
	return fmt.Sprintf("shape(%d)", uint8(s))
}

// TypeDescriptor describes how to decode the payload of one wire type.
// Width is the payload width for Scalar and NodeId, and the width of one
// subfield for multi-field shapes (lat/lng width for GPS).
type TypeDescriptor struct {
	Code    uint8
	Width   uint8
	Name    string
	Divisor uint32
	Shape   Shape
}

// PayloadLen is the number of payload bytes one record of this type consumes,
// excluding the two header bytes.
func (d TypeDescriptor) PayloadLen() int {
	w := int(d.Width)
	switch d.Shape {
	case ShapeVector3, ShapeColor3:
		return 3 * w
	case ShapeGeoPosition2D:
		return 2*w + gpsAltWidth
	case ShapeGeoPosition3D:
		return 2*w + gpsAltWidth
	}
	return w
}

func (d TypeDescriptor) String() string {
	return fmt.Sprintf("%d:%s(%s w=%d div=%d)", d.Code, d.Name, d.Shape, d.Width, d.Divisor)
}

const (
	gpsAltWidth   = 3
	gpsAltDivisor = 100
)

// Wire codes with special handling.
const (
	CodeAccelerometer uint8 = 113
	CodeGyrometer     uint8 = 134
	CodeColour        uint8 = 135
	CodeGPS4          uint8 = 136
	CodeGPS6          uint8 = 137
	CodeNodeId        uint8 = 255
)

var typeTable = []TypeDescriptor{
	{0, 1, "digital_in", 1, ShapeScalar},
	{1, 1, "digital_out", 1, ShapeScalar},
	{2, 2, "analog_in", 100, ShapeScalar},
	{3, 2, "analog_out", 100, ShapeScalar},
	{100, 4, "generic", 1, ShapeScalar},
	{101, 2, "illuminance", 1, ShapeScalar},
	{102, 1, "presence", 1, ShapeScalar},
	{103, 2, "temperature", 10, ShapeScalar},
	{104, 1, "humidity", 2, ShapeScalar},
	{112, 2, "humidity_prec", 10, ShapeScalar},
	{CodeAccelerometer, 2, "accelerometer", 1000, ShapeVector3},
	{115, 2, "barometer", 10, ShapeScalar},
	{116, 2, "voltage", 100, ShapeScalar},
	{117, 2, "current", 1000, ShapeScalar},
	{118, 4, "frequency", 1, ShapeScalar},
	{120, 1, "percentage", 1, ShapeScalar},
	{121, 2, "altitude", 1, ShapeScalar},
	{125, 2, "concentration", 1, ShapeScalar},
	{128, 2, "power", 1, ShapeScalar},
	{130, 4, "distance", 1000, ShapeScalar},
	{131, 4, "energy", 1000, ShapeScalar},
	{132, 2, "direction", 1, ShapeScalar},
	{133, 4, "time", 1, ShapeScalar},
	{CodeGyrometer, 2, "gyrometer", 100, ShapeVector3},
	{CodeColour, 1, "colour", 1, ShapeColor3},
	{CodeGPS4, 3, "gps", 10000, ShapeGeoPosition2D},
	{CodeGPS6, 4, "gps", 1000000, ShapeGeoPosition3D},
	{138, 2, "voc", 1, ShapeScalar},
	{142, 1, "switch", 1, ShapeScalar},
	{188, 2, "soil_moist", 10, ShapeScalar},
	{190, 2, "wind_speed", 100, ShapeScalar},
	{191, 2, "wind_direction", 1, ShapeScalar},
	{192, 2, "soil_ec", 1000, ShapeScalar},
	{193, 2, "soil_ph_h", 100, ShapeScalar},
	{194, 2, "soil_ph_l", 10, ShapeScalar},
	{195, 2, "pyranometer", 1, ShapeScalar},
	{203, 1, "light", 1, ShapeScalar},
	{CodeNodeId, 4, "node_id", 1, ShapeNodeId},
}

// read-only after init
var registry = buildRegistry(typeTable)

func buildRegistry(table []TypeDescriptor) map[uint8]TypeDescriptor {
	m := make(map[uint8]TypeDescriptor, len(table))
	for _, d := range table {
		if _, dup := m[d.Code]; dup {
			panic(fmt.Sprintf("code error lpp duplicate wire code=%d", d.Code))
		}
		if d.Divisor == 0 {
			panic(fmt.Sprintf("code error lpp zero divisor code=%d", d.Code))
		}
		m[d.Code] = d
	}
	return m
}

// Lookup returns the descriptor of a wire code, ok=false when the code is unknown.
func Lookup(code uint8) (TypeDescriptor, bool) {
	d, ok := registry[code]
	return d, ok
}

// Types returns a copy of all known descriptors ordered by wire code.
func Types() []TypeDescriptor {
	ds := make([]TypeDescriptor, 0, len(registry))
	for _, d := range registry {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i].Code < ds[j].Code })
	return ds
}
