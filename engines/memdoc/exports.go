//go:build wasip1

package main

import "unsafe"

// state backs the exported entries for the lifetime of the instance.
var state = newEngineState()

// arena pins every buffer handed across the boundary until the host
// releases it. Wasm is single-threaded, so plain map access is safe.
var arena = make(map[uint32][]byte)

//go:wasmexport coffer_alloc
func cofferAlloc(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	buf := make([]byte, size)
	ptr := bufPtr(buf)
	arena[ptr] = buf
	return ptr
}

//go:wasmexport coffer_release
func cofferRelease(ptr uint32) {
	delete(arena, ptr)
}

//go:wasmexport coffer_create
func cofferCreate(ptr, size uint32) uint64 {
	path := string(argView(ptr, size))
	h := state.create(path)
	if h == 0 {
		logHost(2, "refused to open database with empty path")
	} else {
		logHost(0, "opened database "+path)
	}
	return h
}

//go:wasmexport coffer_read_by_id
func cofferReadByID(h uint64, ptr, size uint32) uint64 {
	return packResult(state.readByID(h, string(argView(ptr, size))))
}

//go:wasmexport coffer_read_all
func cofferReadAll(h uint64) uint64 {
	return packResult(state.readAll(h))
}

//go:wasmexport coffer_write
func cofferWrite(h uint64, ptr, size uint32) uint64 {
	return packResult(state.write(h, argView(ptr, size)))
}

//go:wasmexport coffer_delete
func cofferDelete(h uint64, ptr, size uint32) uint64 {
	return packResult(state.remove(h, string(argView(ptr, size))))
}

//go:wasmexport coffer_clear
func cofferClear(h uint64) uint64 {
	return packResult(state.clear(h))
}

//go:wasmexport coffer_close
func cofferClose(h uint64) uint64 {
	return packResult(state.closeHandle(h))
}

//go:wasmexport coffer_ping
func cofferPing(h uint64) uint64 {
	status := state.ping(h)
	if status == "" {
		return 0
	}
	return packResult([]byte(status))
}

//go:wasmexport coffer_generation
func cofferGeneration() uint64 {
	return state.gen()
}

//go:wasmexport coffer_is_open
func cofferIsOpen(h uint64) uint32 {
	if state.isOpen(h) {
		return 1
	}
	return 0
}

//go:wasmimport coffer_host host_log
func hostLog(level, ptr, size uint32)

// logHost routes a diagnostic line into the host's structured log.
// Levels follow the host convention: 0 debug, 1 info, 2 warn, 3 error.
func logHost(level uint32, msg string) {
	if msg == "" {
		return
	}
	b := []byte(msg)
	hostLog(level, bufPtr(b), uint32(len(b)))
}

// argView aliases host-written bytes in place; callers copy whatever
// they keep past the call.
func argView(ptr, size uint32) []byte {
	if ptr == 0 || size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), int(size))
}

// packResult pins a copy of data and returns the ptr<<32|len value the
// host copies out of linear memory before releasing.
func packResult(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	ptr := bufPtr(buf)
	arena[ptr] = buf
	return uint64(ptr)<<32 | uint64(uint32(len(data)))
}

func bufPtr(b []byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(&b[0])))
}
