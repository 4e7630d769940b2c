// Package contract holds reusable behavioural checks that every region
// catalog adapter must pass.
package contract

import (
	"context"
	"testing"

	"alumni/internal/region/models"
	"alumni/internal/region/providers"
)

// ChildrenCase is one lookup and what it must contain.
type ChildrenCase struct {
	Name         string
	Level        models.Level
	ParentCode   string
	ExpectCodes  []string // must all be present; order is not checked
	ExpectFirst  string   // when set, the first option must carry this code
	ValidateFunc func(options []models.Option) error
}

// ErrorCase is a lookup that must fail with a given category.
type ErrorCase struct {
	Name          string
	Level         models.Level
	ParentCode    string
	ExpectedError providers.ErrorCategory
	ExpectedRetry bool
}

// PostalCase is a postal lookup and its expected result; nil Expect means
// "no postal code on record".
type PostalCase struct {
	Name        string
	VillageCode string
	Expect      *string
}

// SourceSuite runs the contract against a RegionDataSource.
type SourceSuite struct {
	Source   providers.RegionDataSource
	Children []ChildrenCase
	Errors   []ErrorCase
}

func (s *SourceSuite) Run(t *testing.T) {
	for _, tc := range s.Children {
		t.Run(tc.Name, func(t *testing.T) {
			options, err := s.Source.FetchChildren(context.Background(), tc.Level, tc.ParentCode)
			if err != nil {
				t.Fatalf("fetch children failed: %v", err)
			}

			seen := make(map[string]struct{}, len(options))
			for _, o := range options {
				if o.Code == "" || o.Name == "" {
					t.Errorf("option with empty code or name: %+v", o)
				}
				if _, dup := seen[o.Code]; dup {
					t.Errorf("duplicate option code %s", o.Code)
				}
				seen[o.Code] = struct{}{}
			}

			for _, code := range tc.ExpectCodes {
				if _, ok := seen[code]; !ok {
					t.Errorf("expected code %s under %s %q", code, tc.Level, tc.ParentCode)
				}
			}

			if tc.ExpectFirst != "" && (len(options) == 0 || options[0].Code != tc.ExpectFirst) {
				t.Errorf("expected first option %s, got %+v", tc.ExpectFirst, options)
			}

			if tc.ValidateFunc != nil {
				if err := tc.ValidateFunc(options); err != nil {
					t.Errorf("custom validation failed: %v", err)
				}
			}
		})
	}

	for _, tc := range s.Errors {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := s.Source.FetchChildren(context.Background(), tc.Level, tc.ParentCode)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if category := providers.GetCategory(err); category != tc.ExpectedError {
				t.Errorf("expected error category %s, got %s", tc.ExpectedError, category)
			}
			if retry := providers.IsRetryable(err); retry != tc.ExpectedRetry {
				t.Errorf("expected retryable=%v, got %v", tc.ExpectedRetry, retry)
			}
		})
	}
}

// ResolverSuite runs the contract against a PostalCodeResolver.
type ResolverSuite struct {
	Resolver providers.PostalCodeResolver
	Cases    []PostalCase
}

func (s *ResolverSuite) Run(t *testing.T) {
	for _, tc := range s.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			got, err := s.Resolver.ResolvePostalCode(context.Background(), tc.VillageCode)
			if err != nil {
				t.Fatalf("resolve postal code failed: %v", err)
			}
			switch {
			case tc.Expect == nil && got != nil:
				t.Errorf("expected no postal code, got %q", *got)
			case tc.Expect != nil && got == nil:
				t.Errorf("expected postal code %q, got none", *tc.Expect)
			case tc.Expect != nil && *got != *tc.Expect:
				t.Errorf("expected postal code %q, got %q", *tc.Expect, *got)
			}
		})
	}
}

// Ptr returns a pointer to s, for PostalCase.Expect.
func Ptr(s string) *string {
	return &s
}
