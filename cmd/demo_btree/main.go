package main

import (
	"fmt"
	"os"

	"github.com/zhukovaskychina/xmysql-storage/conf"
	"github.com/zhukovaskychina/xmysql-storage/storage/basic"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/storage/engine"
)

func main() {
	fmt.Println("=== B+Tree Index Demo ===")

	dir, err := os.MkdirTemp("", "demo_btree")
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return
	}
	defer os.RemoveAll(dir)

	cfg := conf.Default()
	cfg.DataDir = dir
	cfg.PoolSize = 16
	cfg.LogLevel = "warn"

	e, err := engine.Open(cfg)
	if err != nil {
		fmt.Printf("ERROR: open engine: %v\n", err)
		return
	}
	defer e.Close()

	idx, err := engine.CreateIndex[uint32](e, "demo_pk", basic.Uint32Codec{}, basic.CompareUint32)
	if err != nil {
		fmt.Printf("ERROR: create index: %v\n", err)
		return
	}
	txn := basic.NewTransaction()

	fmt.Println("\n1. Inserting keys 1..200...")
	for k := uint32(1); k <= 200; k++ {
		if _, err := idx.Insert(k, common.NewRID(common.PageID(k), 0), txn); err != nil {
			fmt.Printf("ERROR: insert %d: %v\n", k, err)
			return
		}
	}
	fmt.Println("✓ inserted, root page:", idx.RootPageID())

	fmt.Println("\n2. Point lookups...")
	for _, k := range []uint32{1, 100, 200} {
		rid, ok, err := idx.GetValue(k, txn)
		if err != nil || !ok {
			fmt.Printf("ERROR: get %d: ok=%v err=%v\n", k, ok, err)
			return
		}
		fmt.Printf("✓ key %d -> rid %s\n", k, rid)
	}

	fmt.Println("\n3. Range scan from 190...")
	it, err := idx.IteratorAt(190)
	if err != nil {
		fmt.Printf("ERROR: iterator: %v\n", err)
		return
	}
	for !it.IsEnd() {
		fmt.Printf("  %d", it.Key())
		if err := it.Next(); err != nil {
			fmt.Printf("ERROR: next: %v\n", err)
			return
		}
	}
	it.Close()
	fmt.Println()

	fmt.Println("\n4. Removing keys 50..150 (merges and redistributions)...")
	for k := uint32(50); k <= 150; k++ {
		if err := idx.Remove(k, txn); err != nil {
			fmt.Printf("ERROR: remove %d: %v\n", k, err)
			return
		}
	}
	if _, ok, _ := idx.GetValue(100, txn); !ok {
		fmt.Println("✓ removed keys gone")
	}
	if _, ok, _ := idx.GetValue(151, txn); ok {
		fmt.Println("✓ surviving keys intact")
	}

	fmt.Println("\n=== Demo completed ===")
}
