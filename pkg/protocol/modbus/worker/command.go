package worker

import (
	"modbusbridge/pkg/runtime"
)

type CommandKind uint8

const (
	CommandSet CommandKind = iota
	CommandGet
)

// AllRegisters targets every sub-register of a worker.
const AllRegisters = -1

// Command is a set or get addressed to one worker. Index selects the
// sub-register, BitID the bit-range table entry for individually addressed
// bits and enums.
type Command struct {
	Kind    CommandKind
	Index   int
	BitID   int
	Value   runtime.Value
	ReplyTo string
	// Component marks a get answered with the fields of every sibling worker.
	Component bool
	// Request ties the answers of sibling workers to one component get.
	Request uint64
}

func Set(index, bitID int, v runtime.Value) Command {
	return Command{Kind: CommandSet, Index: index, BitID: bitID, Value: v}
}

func Get(index, bitID int, replyTo string) Command {
	return Command{Kind: CommandGet, Index: index, BitID: bitID, ReplyTo: replyTo}
}
