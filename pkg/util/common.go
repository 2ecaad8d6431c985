package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
)

func GetJson(v interface{}) string {
	marshal, _ := json.Marshal(v)
	return string(marshal)
}

// BytesMD5 计算数据的MD5值
func BytesMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
