package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	server "github.com/raft-exchange"
	"github.com/raft-exchange/config"
	"github.com/raft-exchange/model"
)

func main() {
	file := flag.String("config", "../testdata/config.yaml", "config file")
	id := flag.Int("id", 1, "node id")
	lead := flag.Bool("lead", false, "send heartbeats to the other nodes")
	term := flag.Uint64("term", 1, "term claimed when leading")
	flag.Parse()

	conf, err := config.ReadConfig(*file)
	if err != nil {
		panic(err)
	}
	s, err := server.NewServer(*id, conf)
	if err != nil {
		panic(err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *lead {
		if err := s.BecomeLeader(*term); err != nil {
			panic(err)
		}
		c, err := server.NewClient(*id, conf)
		if err != nil {
			panic(err)
		}
		defer c.Close()
		go heartbeat(ctx, c, conf, *id, *term)
	}

	<-ctx.Done()
}

func heartbeat(ctx context.Context, c *server.Client, conf *config.Config, self int, term uint64) {
	ticker := time.NewTicker(conf.ElectionTimeout / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for _, n := range conf.Nodes {
			if n.Id == self {
				continue
			}
			rctx, cancel := context.WithTimeout(ctx, conf.RequestTimeout)
			res, err := c.Heartbeat(rctx, n.Id, model.HeartbeatRequest{Term: term})
			cancel()
			if err != nil {
				fmt.Printf("heartbeat to %d: %v\n", n.Id, err)
				continue
			}
			fmt.Printf("heartbeat to %d: term=%d accepted=%v\n", n.Id, res.Term, res.Value)
		}
	}
}
