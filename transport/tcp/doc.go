// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp implements the accept side of hioload-nio: a listener loop that
// detaches each accepted socket into a transport.Channel and hands it to the
// reactor, with optional CPU pinning of the accept thread.
package tcp
