/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("bogus"))
}

func TestNewLoggerIsRegistered(t *testing.T) {
	a := NewLogger("test-registry")
	b := NewLogger("test-registry")
	assert.Same(t, a, b)

	got, ok := GetRegisteredLogger("test-registry")
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.True(t, SetLoggerLevel("test-registry", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("test-missing", "error"))
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("test-text")
	l.SetOutput(&buf)
	l.SetLevel(logrus.InfoLevel)

	l.WithFields(logrus.Fields{"rows": 4, "offset": 0}).Info("page")
	line := buf.String()
	assert.Contains(t, line, "test-text")
	assert.Contains(t, line, "page offset=0 rows=4")
	assert.Contains(t, line, "logger_test.go")
}

func TestJSONFormatter(t *testing.T) {
	ConfigureConsoleLogFormat("JSON")
	defer ConfigureConsoleLogFormat("text")

	var buf bytes.Buffer
	l := NewLogger("test-json")
	l.SetOutput(&buf)
	l.SetLevel(logrus.InfoLevel)
	l.WithField("total", 1).Info("done")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test-json", entry[loggerNameField])
	assert.Equal(t, "done", entry["msg"])
	assert.EqualValues(t, 1, entry["total"])
}

func TestConfigureLogLevel(t *testing.T) {
	l := NewLogger("test-level")
	ConfigureLogLevel("debug")
	defer ConfigureLogLevel("info")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.Equal(t, logrus.DebugLevel, NewLogger("test-level-late").GetLevel())
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("HUMMER_TEST_STR", "x")
	assert.Equal(t, "x", EnvDefaultString("HUMMER_TEST_STR", "d"))
	assert.Equal(t, "d", EnvDefaultString("HUMMER_TEST_UNSET", "d"))
}

func TestConsoleFormatSwitchWhileCreatingLoggers(t *testing.T) {
	defer ConfigureConsoleLogFormat("text")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				ConfigureConsoleLogFormat("json")
			} else {
				ConfigureConsoleLogFormat("text")
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			NewLogger(fmt.Sprintf("test-format-%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		_, ok := GetRegisteredLogger(fmt.Sprintf("test-format-%d", i))
		assert.True(t, ok)
	}
}
