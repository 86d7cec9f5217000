package xhttp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
)

// 配置项名称。
const (
	OptServiceName         = "service_name"
	OptDistributedTracing  = "distributed_tracing"
	OptSplitByDomain       = "split_by_domain"
	OptAnalyticsEnabled    = "analytics_enabled"
	OptAnalyticsSampleRate = "analytics_sample_rate"
	OptErrorStatusCodes    = "error_status_codes"
)

// 环境变量。
const (
	EnvServiceName         = "XCONTRIB_HTTP_SERVICE_NAME"
	EnvAnalyticsEnabled    = "XCONTRIB_HTTP_ANALYTICS_ENABLED"
	EnvAnalyticsSampleRate = "XCONTRIB_HTTP_ANALYTICS_SAMPLE_RATE"
)

// DefaultServiceName service_name 的默认值。
const DefaultServiceName = "http-client"

// Schema http 集成的配置项。
var Schema = xsettings.MustSchema(
	xsettings.Option{
		Name: OptServiceName, Kind: xsettings.KindString, Default: DefaultServiceName,
		Env: EnvServiceName, Description: "service name of client spans",
	},
	xsettings.Option{
		Name: OptDistributedTracing, Kind: xsettings.KindBool, Default: true,
		Description: "inject W3C trace context headers",
	},
	xsettings.Option{
		Name: OptSplitByDomain, Kind: xsettings.KindBool,
		Description: "use the request host as service name",
	},
	xsettings.Option{
		Name: OptAnalyticsEnabled, Kind: xsettings.KindBool,
		Env: EnvAnalyticsEnabled, Description: "tag spans with analytics.sample_rate",
	},
	xsettings.Option{
		Name: OptAnalyticsSampleRate, Kind: xsettings.KindFloat, Default: 1.0,
		Env: EnvAnalyticsSampleRate, Description: "analytics sample rate",
	},
	xsettings.Option{
		Name: OptErrorStatusCodes, Kind: xsettings.KindStringList, Default: []string{"500-599"},
		Description: "status codes marked as errors, e.g. 500-599 or 404",
	},
)

type statusRange struct {
	lo, hi int
}

// statusRanges 已解析的 error_status_codes。
type statusRanges []statusRange

func (rs statusRanges) contains(code int) bool {
	for _, r := range rs {
		if code >= r.lo && code <= r.hi {
			return true
		}
	}
	return false
}

type parsedRanges struct {
	ranges statusRanges
	err    error
}

const rangeCacheSize = 64

// 仅在 size <= 0 时返回错误
var rangeCache, _ = lru.New[string, parsedRanges](rangeCacheSize)

// parseStatusCodes 解析 "lo-hi" 或单个状态码。无效项被跳过，错误汇总返回。
func parseStatusCodes(items []string) (statusRanges, error) {
	key := strings.Join(items, ",")
	if p, ok := rangeCache.Get(key); ok {
		return p.ranges, p.err
	}

	var out statusRanges
	var errs []error
	for _, item := range items {
		r, err := parseStatusRange(item)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, r)
	}
	err := errors.Join(errs...)
	rangeCache.Add(key, parsedRanges{ranges: out, err: err})
	return out, err
}

func parseStatusRange(item string) (statusRange, error) {
	item = strings.TrimSpace(item)
	loStr, hiStr, isRange := strings.Cut(item, "-")
	lo, err := parseStatus(loStr)
	if err != nil {
		return statusRange{}, fmt.Errorf("%w: %q", ErrInvalidStatusCodes, item)
	}
	if !isRange {
		return statusRange{lo: lo, hi: lo}, nil
	}
	hi, err := parseStatus(hiStr)
	if err != nil || hi < lo {
		return statusRange{}, fmt.Errorf("%w: %q", ErrInvalidStatusCodes, item)
	}
	return statusRange{lo: lo, hi: hi}, nil
}

func parseStatus(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 100 || n > 999 {
		return 0, fmt.Errorf("status %d out of range", n)
	}
	return n, nil
}
