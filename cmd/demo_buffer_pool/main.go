package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zhukovaskychina/xmysql-storage/storage/buffer_pool"
	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/storage/disk"
)

func main() {
	fmt.Println("=== Buffer Pool Demo ===")

	dir, err := os.MkdirTemp("", "demo_buffer_pool")
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return
	}
	defer os.RemoveAll(dir)

	dm, err := disk.NewFileDiskManager(filepath.Join(dir, "demo.ibd"))
	if err != nil {
		fmt.Printf("ERROR: open disk manager: %v\n", err)
		return
	}
	defer dm.Close()

	pool := buffer_pool.NewBufferPoolManager(3, 8, dm)

	fmt.Println("\n1. Pinning every frame...")
	var pids []common.PageID
	for i := 0; i < 3; i++ {
		p, err := pool.NewPage()
		if err != nil {
			fmt.Printf("ERROR: new page: %v\n", err)
			return
		}
		copy(p.Data(), fmt.Sprintf("payload of page %d", p.ID()))
		pids = append(pids, p.ID())
	}
	if _, err := pool.NewPage(); err != nil {
		fmt.Printf("✓ pool exhausted as expected: %v\n", err)
	}

	fmt.Println("\n2. Unpinning dirty pages and fetching page 0 back...")
	for _, pid := range pids {
		pool.UnpinPage(pid, true)
	}
	p, err := pool.FetchPage(common.PageID(0))
	if err != nil {
		fmt.Printf("ERROR: fetch back page 0: %v\n", err)
		return
	}
	fmt.Printf("✓ page 0 read back: %q\n", string(p.Data()[:17]))
	pool.UnpinPage(p.ID(), false)

	fmt.Println("\n3. Flushing and reporting...")
	pool.FlushAll()
	fmt.Printf("✓ hit rate %.2f, pinned frames %d, disk stats %v\n",
		pool.HitRate(), pool.PinnedCount(), dm.Stats())

	fmt.Println("\n=== Demo completed ===")
}
