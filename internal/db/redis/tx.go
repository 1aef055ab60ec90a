package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docmind/internal/db"
)

// Exec applies ops inside MULTI/EXEC. rueidis pins a MULTI...EXEC pipeline
// to one connection, so FT.SEARCH sees either none or all of the writes.
func (s *Store) Exec(ctx context.Context, ops []db.Op) error {
	if len(ops) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(ops)+2)
	cmds = append(cmds, s.b().Multi().Build())
	for i := range ops {
		cmd, err := s.buildOp(&ops[i])
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			if rueidis.IsRedisNil(err) {
				return &db.Error{Op: db.OpExec, Err: db.ErrTxAborted}
			}
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("command %d: %w", i, err)}
		}
	}
	return nil
}

func (s *Store) buildOp(op *db.Op) (rueidis.Completed, error) {
	switch op.Kind {
	case db.OpKindHSet:
		if len(op.Fields) == 0 {
			return rueidis.Completed{}, fmt.Errorf("hset %s: no fields", op.Key)
		}
		cmd := s.b().Hset().Key(op.Key).FieldValue()
		for k, v := range op.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		return cmd.Build(), nil
	case db.OpKindSet:
		return s.b().Set().Key(op.Key).Value(string(op.Value)).Build(), nil
	case db.OpKindDel:
		return s.b().Del().Key(op.Key).Build(), nil
	default:
		return rueidis.Completed{}, fmt.Errorf("unknown op kind %d", op.Kind)
	}
}
