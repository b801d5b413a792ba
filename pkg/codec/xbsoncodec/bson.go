package xbsoncodec

import (
	"maps"
	"slices"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FromM 把 bson.M 转为按键排序的 bson.D，嵌套的 bson.M 与 bson.A 一并转换
func FromM(m bson.M) bson.D {
	d := make(bson.D, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		d = append(d, bson.E{Key: k, Value: normalize(m[k])})
	}
	return d
}

func normalize(v any) any {
	switch x := v.(type) {
	case bson.M:
		return FromM(x)
	case bson.A:
		out := make(bson.A, len(x))
		for i, it := range x {
			out[i] = normalize(it)
		}
		return out
	}
	return v
}

// ID 读取 _id 字符串
func ID(doc bson.D) (string, bool) {
	return source{doc: doc}.String(IDField)
}
