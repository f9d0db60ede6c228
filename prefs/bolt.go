/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package prefs

import (
	"strings"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const (
	rootBucket  = "prefs"
	nodePrefix  = "node:"
	valuePrefix = "value:"
)

// Bolt is a Store persisted in a bbolt database. Every node is a nested bucket below the "prefs" bucket.
type Bolt struct {
	db *bolt.DB
}

// OpenBolt opens or creates the database file.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open preference database [%s]", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "failed to initialize preference database [%s]", path)
	}
	pfxlog.Logger().WithField("path", path).Info("opened preference database")
	return &Bolt{db: db}, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

// bucket walks to the node bucket, returning nil when it does not exist.
func bucket(tx *bolt.Tx, path []string) *bolt.Bucket {
	current := tx.Bucket([]byte(rootBucket))
	for _, segment := range path {
		if current == nil {
			return nil
		}
		current = current.Bucket([]byte(nodePrefix + segment))
	}
	return current
}

func createBucket(tx *bolt.Tx, path []string) (*bolt.Bucket, error) {
	current, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
	if err != nil {
		return nil, err
	}
	for _, segment := range path {
		if current, err = current.CreateBucketIfNotExists([]byte(nodePrefix + segment)); err != nil {
			return nil, errors.Wrapf(err, "failed to create preference node [%s]", segment)
		}
	}
	return current, nil
}

func (b *Bolt) Get(path []string, key string) (string, bool, error) {
	var value string
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		node := bucket(tx, path)
		if node == nil {
			return nil
		}
		if data := node.Get([]byte(valuePrefix + key)); data != nil {
			value = string(data)
			found = true
		}
		return nil
	})
	return value, found, err
}

func (b *Bolt) Set(path []string, key, value string) error {
	if key == "" {
		return errors.New("preference key must not be empty")
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		node, err := createBucket(tx, path)
		if err != nil {
			return err
		}
		return node.Put([]byte(valuePrefix+key), []byte(value))
	})
}

func (b *Bolt) Delete(path []string, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		node := bucket(tx, path)
		if node == nil {
			return nil
		}
		return node.Delete([]byte(valuePrefix + key))
	})
}

func (b *Bolt) Keys(path []string) ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		node := bucket(tx, path)
		if node == nil {
			return nil
		}
		return node.ForEach(func(k, v []byte) error {
			if v != nil && strings.HasPrefix(string(k), valuePrefix) {
				keys = append(keys, strings.TrimPrefix(string(k), valuePrefix))
			}
			return nil
		})
	})
	return keys, err
}
