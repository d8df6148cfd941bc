package registry

import "github.com/bytedance/sonic"

func unmarshalJSON(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}
