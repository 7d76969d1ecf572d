// SPDX-License-Identifier: Apache-2.0
/*
 * tar: a streaming tar archive codec with safety checking
 * Copyright (C) 2026 Haskell Works
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package funchelpers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyError(t *testing.T) {
	t.Run("NoError", func(t *testing.T) {
		testFn := func() (Err error) {
			defer VerifyError(&Err, func() error { return nil })
			return nil
		}
		assert.NoError(t, testFn(), "no error returned")
	})

	t.Run("DeferError", func(t *testing.T) {
		testErr := errors.New("TestVerifyError example error")
		testFn := func() (Err error) {
			defer VerifyError(&Err, func() error { return testErr })
			return nil
		}
		assert.ErrorIs(t, testFn(), testErr, "deferred error should be returned")
	})

	t.Run("MainErrorWins", func(t *testing.T) {
		mainErr := errors.New("main error")
		deferErr := errors.New("deferred error")
		testFn := func() (Err error) {
			defer VerifyError(&Err, func() error { return deferErr })
			return mainErr
		}
		assert.ErrorIs(t, testFn(), mainErr, "main error should be kept over deferred error")
	})

	t.Run("AllDeferredCalled", func(t *testing.T) {
		deferErr := errors.New("deferred error")
		called := 0
		testFn := func() (Err error) {
			for _, err := range []error{nil, deferErr, nil} {
				err := err
				defer VerifyError(&Err, func() error {
					called++
					return err
				})
			}
			return nil
		}
		assert.ErrorIs(t, testFn(), deferErr)
		assert.Equal(t, 3, called, "every deferred close function runs")
	})
}
