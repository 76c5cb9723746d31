package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/kolo/xmlrpc"
)

// xmlrpcBits wraps raw bytes as a <base64> value.
func xmlrpcBits(data []byte) xmlrpc.Base64 {
	return xmlrpc.Base64(base64.StdEncoding.EncodeToString(data))
}

// decodeXMLRPCResponse returns the first return value, or an
// xmlrpc.FaultError when the server answered with a fault.
func decodeXMLRPCResponse(data []byte) (any, error) {
	resp := xmlrpc.Response(data)
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var v any
	if err := resp.Unmarshal(&v); err != nil {
		return nil, fmt.Errorf("xmlrpc: decode response: %w", err)
	}
	return v, nil
}

// xmlrpcInt reads ids that servers send either as int or as string.
func xmlrpcInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i
	case float64:
		return int64(n)
	}
	return 0
}
