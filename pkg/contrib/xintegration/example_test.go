package xintegration_test

import (
	"context"
	"fmt"

	"github.com/omeyang/xcontrib/pkg/contrib/xintegration"
	"github.com/omeyang/xcontrib/pkg/contrib/xpatch"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/contrib/xversion"
)

func Example() {
	probe := xversion.NewStaticProbe(xversion.WithModule("github.com/example/orm", "0.62.3"))
	schema := xsettings.MustSchema(
		xsettings.Option{Name: "service_name", Kind: xsettings.KindString, Default: "orm"},
	)

	d := xintegration.MustNew("orm",
		xintegration.WithTarget("github.com/example/orm", "0.62"),
		xintegration.WithProbe(probe),
		xintegration.WithSchema(schema),
		xintegration.WithPatcher(xpatch.New("orm", xpatch.Modification{
			Name:  "query hook",
			Apply: func() error { return nil },
		})),
	)

	reg := xintegration.NewRegistry()
	reg.MustRegister(d)

	fmt.Println(reg.Enable(context.Background(), "orm"))
	fmt.Println(d.Settings("users").String("service_name"))
	// Output:
	// true
	// orm
}
