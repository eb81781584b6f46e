package model

import "time"

// FeatureAccess tracks per-user feature keys. UnlockedKeys is permanent once
// paid for; EnabledKeys is the toggleable subset of it.
type FeatureAccess struct {
	UserID       string
	UnlockedKeys []string
	EnabledKeys  []string
	UpdatedAt    time.Time
}

func NewFeatureAccess(userID string) *FeatureAccess {
	return &FeatureAccess{UserID: userID}
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func (f *FeatureAccess) IsUnlocked(key string) bool { return contains(f.UnlockedKeys, key) }
func (f *FeatureAccess) IsEnabled(key string) bool  { return contains(f.EnabledKeys, key) }

// Unlock adds the key to both sets. Idempotent.
func (f *FeatureAccess) Unlock(key string) {
	if !contains(f.UnlockedKeys, key) {
		f.UnlockedKeys = append(f.UnlockedKeys, key)
	}
	f.Enable(key)
}

// Enable turns on an already-unlocked key. Idempotent.
func (f *FeatureAccess) Enable(key string) {
	if !contains(f.EnabledKeys, key) {
		f.EnabledKeys = append(f.EnabledKeys, key)
	}
}

// Disable removes the key from the enabled set only; the unlock is permanent.
func (f *FeatureAccess) Disable(key string) {
	out := f.EnabledKeys[:0]
	for _, k := range f.EnabledKeys {
		if k != key {
			out = append(out, k)
		}
	}
	f.EnabledKeys = out
}

// FeatureCost is a catalog row pricing a feature unlock in coins.
type FeatureCost struct {
	Key      string
	Name     string
	CoinCost int64
}
