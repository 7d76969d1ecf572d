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

package tar

// Version is the version of the library and the tar tool built from it.
const Version = "0.6.0"

// gitCommit is filled in at link time by the build scripts.
var gitCommit = ""

// FullVersion returns the full version string, including the commit the
// binary was built from when that is known.
func FullVersion() string {
	if gitCommit != "" {
		return Version + "+" + gitCommit
	}
	return Version
}
