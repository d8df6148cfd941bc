package enum

type Platform uint8

const (
	_platform_beg Platform = iota
	PlatformBinance
	PlatformBinanceFutures
	PlatformSynthetic
	_platform_end
)

func (p Platform) IsAvailable() bool {
	return p > _platform_beg && p < _platform_end
}

func (p Platform) String() string {
	switch p {
	case PlatformBinance:
		return "binance"
	case PlatformBinanceFutures:
		return "binance_futures"
	case PlatformSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// ParsePlatform maps a config name to a platform.
func ParsePlatform(name string) (Platform, bool) {
	switch name {
	case "binance":
		return PlatformBinance, true
	case "binance_futures":
		return PlatformBinanceFutures, true
	case "synthetic":
		return PlatformSynthetic, true
	default:
		return 0, false
	}
}
