package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/retracehq/retrace/internal/fact"
)

// Fixture describes a scripted sequence of transactions for one entity,
// loaded from YAML. Used to seed databases and drive reproducible
// scenarios:
//
//	entity: 7d444840-9dc0-11d1-b245-5ffdce74fad2
//	transactions:
//	  - set:
//	      order.operator: Alice
//	      order.count: 3
//	  - retract: [order.count]
type Fixture struct {
	Entity       string      `yaml:"entity"`
	Transactions []FixtureTx `yaml:"transactions"`
}

// FixtureTx is one scripted step: attributes to set and/or attributes
// to retract outright. The store commits asserts and retracts
// separately, so a step carrying both becomes two transactions, the
// set first.
type FixtureTx struct {
	Set     map[string]any `yaml:"set"`
	Retract []string       `yaml:"retract"`
}

// LoadError represents an error that occurred during fixture loading.
type LoadError struct {
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadFixture reads and validates a YAML fixture file. The entity id
// must be a UUID and every transaction must do something; scalar values
// are converted to typed fact values (floats are rejected - the value
// model has no float kind).
func LoadFixture(path string) (uuid.UUID, []ResolvedTx, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return uuid.Nil, nil, &LoadError{Path: path, Message: fmt.Sprintf("read fixture: %v", err)}
	}

	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return uuid.Nil, nil, &LoadError{Path: path, Message: fmt.Sprintf("parse fixture: %v", err)}
	}

	entity, err := uuid.Parse(fx.Entity)
	if err != nil {
		return uuid.Nil, nil, &LoadError{Path: path, Message: fmt.Sprintf("invalid entity id %q: %v", fx.Entity, err)}
	}

	if len(fx.Transactions) == 0 {
		return uuid.Nil, nil, &LoadError{Path: path, Message: "fixture has no transactions"}
	}

	resolved := make([]ResolvedTx, 0, len(fx.Transactions))
	for i, tx := range fx.Transactions {
		if len(tx.Set) == 0 && len(tx.Retract) == 0 {
			return uuid.Nil, nil, &LoadError{Path: path, Message: fmt.Sprintf("transaction %d sets and retracts nothing", i)}
		}

		r := ResolvedTx{Retract: tx.Retract}
		if len(tx.Set) > 0 {
			r.Set = make(map[string]fact.Value, len(tx.Set))
			for attr, raw := range tx.Set {
				value, err := fixtureValue(raw)
				if err != nil {
					return uuid.Nil, nil, &LoadError{Path: path, Message: fmt.Sprintf("transaction %d, attribute %q: %v", i, attr, err)}
				}
				r.Set[fact.NormalizeAttr(attr)] = value
			}
		}
		resolved = append(resolved, r)
	}

	return entity, resolved, nil
}

// ResolvedTx is a fixture transaction with values already typed.
type ResolvedTx struct {
	Set     map[string]fact.Value
	Retract []string
}

// fixtureValue converts a decoded YAML scalar to a fact.Value. Strings
// go through the same literal recognition as CLI arguments, so
// timestamps and UUIDs in fixtures come out typed.
func fixtureValue(raw any) (fact.Value, error) {
	switch v := raw.(type) {
	case string:
		return ParseLiteral(v), nil
	case bool:
		return fact.Bool(v), nil
	case int:
		return fact.Int(int64(v)), nil
	case int64:
		return fact.Int(v), nil
	case uint64:
		if v > uint64(1<<63-1) {
			return nil, fmt.Errorf("integer out of int64 range: %d", v)
		}
		return fact.Int(int64(v)), nil
	case time.Time:
		// Unquoted timestamps decode as time.Time under the !!timestamp tag
		return fact.Time(v), nil
	case float64:
		return nil, fmt.Errorf("floats are not supported attribute values: %v", v)
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}
