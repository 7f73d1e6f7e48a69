package serial_test

import (
	"bytes"
	"context"
	"fmt"

	"github.com/matzehuels/keygraph/pkg/catalog"
	"github.com/matzehuels/keygraph/pkg/keychain"
)

func ExampleSerializer_Read() {
	srv := catalog.NewServer("prod")
	app, _ := srv.AddLogin("app")
	db, _ := srv.AddDatabase("sales")
	db.Owner = app
	db.AddTable("dbo", "Orders")

	s := catalog.NewSerializer()
	var buf bytes.Buffer
	if err := s.Write(context.Background(), &buf, srv); err != nil {
		fmt.Println(err)
		return
	}

	res, err := s.Read(context.Background(), &buf)
	if err != nil {
		fmt.Println(err)
		return
	}
	back := res.Root.(*catalog.Server)
	sales, _ := back.Database("sales")
	fmt.Println(res.RootPath, res.Objects)
	fmt.Println(keychain.Path(sales.Owner.KeyChain()))
	for _, t := range sales.Tables() {
		fmt.Println(keychain.Path(t.KeyChain()))
	}
	// Output:
	// /Server/prod 4
	// /Server/prod/Login/app
	// /Server/prod/Database/sales/Table/dbo.Orders
}
