package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/arthurzhang/arbtree/bptree"
	"github.com/arthurzhang/arbtree/internal/arena"
	"github.com/arthurzhang/arbtree/internal/metrics"
)

func main() {
	cfg := metrics.DefaultConfig()

	nodes, err := arena.New[bptree.Node[int64, string]](cfg.ArenaCapacityBytes)
	if err != nil {
		fmt.Println("error creating arena:", err)
		os.Exit(1)
	}
	tree, err := bptree.NewTree[int64, string](nodes, cfg.Fanout)
	if err != nil {
		fmt.Println("error creating tree:", err)
		os.Exit(1)
	}

	log, err := zap.NewDevelopment()
	if err == nil {
		tree.SetLogger(log)
		defer log.Sync()
	}

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("arbtree> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		cmd := strings.TrimSpace(line)
		if cmd == "" {
			continue
		}

		fields := strings.Fields(cmd)
		switch strings.ToUpper(fields[0]) {
		case "EXIT", "QUIT":
			fmt.Println("bye")
			return

		case "INSERT":
			if len(fields) != 3 {
				fmt.Println("usage: INSERT <key> <value>")
				continue
			}
			key, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				fmt.Println("bad key:", err)
				continue
			}
			if err := tree.Insert(key, fields[2]); err != nil {
				fmt.Println("insert failed:", err)
				continue
			}
			fmt.Println("OK")

		case "FIND":
			if len(fields) != 2 {
				fmt.Println("usage: FIND <key>")
				continue
			}
			key, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				fmt.Println("bad key:", err)
				continue
			}
			vLinear, okLinear := tree.FindLinear(key)
			vBinary, okBinary := tree.FindBinary(key)
			vSIMD, okSIMD := tree.FindSIMD(key)

			if okLinear != okBinary || okLinear != okSIMD || (okLinear && (vLinear != vBinary || vLinear != vSIMD)) {
				fmt.Println("DISAGREEMENT between find variants — this should never happen")
				continue
			}
			if !okLinear {
				fmt.Println("not found")
				continue
			}
			fmt.Println(vLinear)

		case "REMOVE":
			if len(fields) != 2 {
				fmt.Println("usage: REMOVE <key>")
				continue
			}
			key, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				fmt.Println("bad key:", err)
				continue
			}
			tree.Remove(key)
			fmt.Println("OK")

		case "STATS":
			fmt.Printf("fanout=%d %s\n", tree.Fanout(), nodes.String())

		default:
			fmt.Println("unknown command; use INSERT, FIND, REMOVE, STATS, or EXIT")
		}
	}
}
