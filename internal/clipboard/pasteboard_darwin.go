//go:build darwin

package clipboard

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa

#import <Cocoa/Cocoa.h>
#import <stdlib.h>

int changeCount() {
    return (int)[[NSPasteboard generalPasteboard] changeCount];
}

static const char* copyString(NSString *s) {
    if (s == nil) {
        return NULL;
    }
    return strdup([s UTF8String]);
}

const char* readString() {
    return copyString([[NSPasteboard generalPasteboard] stringForType:NSPasteboardTypeString]);
}

const char* readHTML() {
    return copyString([[NSPasteboard generalPasteboard] stringForType:NSPasteboardTypeHTML]);
}

// Returns PNG data, converting TIFF when that is all the pasteboard offers
void* readPNG(int* length) {
    NSPasteboard *pb = [NSPasteboard generalPasteboard];
    NSData *png = [pb dataForType:NSPasteboardTypePNG];
    if (png == nil) {
        NSData *tiff = [pb dataForType:NSPasteboardTypeTIFF];
        if (tiff != nil) {
            NSBitmapImageRep *rep = [NSBitmapImageRep imageRepWithData:tiff];
            png = [rep representationUsingType:NSBitmapImageFileTypePNG properties:@{}];
        }
    }
    if (png == nil) {
        *length = 0;
        return NULL;
    }
    *length = (int)[png length];
    void *buffer = malloc(*length);
    memcpy(buffer, [png bytes], *length);
    return buffer;
}

int writeString(const char* text, int html) {
    NSPasteboard *pb = [NSPasteboard generalPasteboard];
    [pb clearContents];
    NSString *s = [NSString stringWithUTF8String:text];
    if (html) {
        [pb setString:s forType:NSPasteboardTypeHTML];
    }
    return [pb setString:s forType:NSPasteboardTypeString] ? 1 : 0;
}

int writePNG(const void* data, int length) {
    NSPasteboard *pb = [NSPasteboard generalPasteboard];
    [pb clearContents];
    NSImage *image = [[NSImage alloc] initWithData:[NSData dataWithBytes:data length:length]];
    if (image == nil) {
        return 0;
    }
    return [pb writeObjects:@[image]] ? 1 : 0;
}

// Password managers mark their entries transient or concealed
int hasTransientData() {
    for (NSString *type in [[NSPasteboard generalPasteboard] types]) {
        if ([type containsString:@"org.nspasteboard.TransientType"] ||
            [type containsString:@"org.nspasteboard.ConcealedType"]) {
            return 1;
        }
    }
    return 0;
}
*/
import "C"

import (
	"context"
	"strconv"
	"time"
	"unsafe"
)

// Pasteboard is the macOS general pasteboard
type Pasteboard struct {
	monitor *Monitor
}

// NewPasteboard creates a pasteboard source polling the change count at interval
func NewPasteboard(interval time.Duration) *Pasteboard {
	return &Pasteboard{
		monitor: NewMonitor(func(context.Context) (string, error) {
			return strconv.Itoa(int(C.changeCount())), nil
		}, interval),
	}
}

func goString(cstr *C.char) (string, bool) {
	if cstr == nil {
		return "", false
	}
	defer C.free(unsafe.Pointer(cstr))
	return C.GoString(cstr), true
}

// Snapshot reads the pasteboard. Transient data reads as empty.
func (p *Pasteboard) Snapshot(ctx context.Context) (Snapshot, error) {
	if C.hasTransientData() == 1 {
		return Snapshot{}, nil
	}

	var length C.int
	if ptr := C.readPNG(&length); ptr != nil {
		data := C.GoBytes(ptr, length)
		C.free(ptr)
		if len(data) > 0 {
			return ImageSnapshot(data), nil
		}
	}

	var snap Snapshot
	if html, ok := goString(C.readHTML()); ok && html != "" {
		snap.HasHTML = true
		snap.HTML = html
	}
	if text, ok := goString(C.readString()); ok && text != "" {
		snap.HasText = true
		snap.Text = text
	}
	return snap, nil
}

// OnChange sets the change handler
func (p *Pasteboard) OnChange(handler ChangeHandler) {
	p.monitor.OnChange(handler)
}

// Write replaces the pasteboard contents
func (p *Pasteboard) Write(ctx context.Context, snap Snapshot) error {
	var ok bool
	switch {
	case snap.HasImage && len(snap.Image) > 0:
		ok = C.writePNG(unsafe.Pointer(&snap.Image[0]), C.int(len(snap.Image))) == 1
	case snap.HasHTML:
		cstr := C.CString(snap.HTML)
		defer C.free(unsafe.Pointer(cstr))
		ok = C.writeString(cstr, 1) == 1
	case snap.HasText:
		cstr := C.CString(snap.Text)
		defer C.free(unsafe.Pointer(cstr))
		ok = C.writeString(cstr, 0) == 1
	default:
		return ErrUnsupportedFormat
	}
	if !ok {
		return ErrUnsupportedFormat
	}
	return nil
}

// Start begins polling the change count
func (p *Pasteboard) Start(ctx context.Context) error {
	p.monitor.Start()
	return nil
}

// Stop stops polling
func (p *Pasteboard) Stop() {
	p.monitor.Stop()
}
