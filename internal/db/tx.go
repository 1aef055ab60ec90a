package db

// OpKind is the type of a transactional write.
type OpKind int

const (
	// OpKindHSet sets hash fields.
	OpKindHSet OpKind = iota
	// OpKindSet stores a plain value.
	OpKindSet
	// OpKindDel removes a key.
	OpKindDel
)

// Op is a single write inside an atomic Exec.
type Op struct {
	Kind   OpKind
	Key    string
	Fields map[string]string // OpKindHSet
	Value  []byte            // OpKindSet
}

// HSetOp builds an HSET operation.
func HSetOp(key string, fields map[string]string) Op {
	return Op{Kind: OpKindHSet, Key: key, Fields: fields}
}

// SetOp builds a SET operation.
func SetOp(key string, value []byte) Op {
	return Op{Kind: OpKindSet, Key: key, Value: value}
}

// DelOp builds a DEL operation.
func DelOp(key string) Op {
	return Op{Kind: OpKindDel, Key: key}
}
