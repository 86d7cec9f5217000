package xconf_test

import (
	"fmt"

	"github.com/omeyang/xcontrib/pkg/config/xconf"
)

func ExampleNewFromBytes() {
	data := []byte(`
integrations:
  http:
    settings:
      service_name: api-client
    overrides:
      - exact: api.internal
        settings:
          service_name: internal
`)
	cfg, err := xconf.NewFromBytes(data, xconf.FormatYAML)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	ic, ok, err := cfg.Integration("http")
	if err != nil || !ok {
		fmt.Println("missing http section")
		return
	}
	fmt.Println(ic.IsEnabled(), ic.Settings["service_name"], ic.Overrides[0].Exact)
	// Output: true api-client api.internal
}
