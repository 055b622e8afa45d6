package vulkan

import (
	"errors"
	"fmt"
	gomath "math"
	"runtime"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
	"github.com/spaghettifunk/volchara/engine/platform"
	"github.com/spaghettifunk/volchara/engine/renderer/vulkan/dynstate"
	"github.com/spaghettifunk/volchara/engine/scene"
)

const (
	fieldOfView = 45.0
	nearPlane   = 0.01
)

type Options struct {
	ApplicationName   string
	Width             uint32
	Height            uint32
	MaxTextures       uint32
	FramesInFlight    uint32
	MaxFramerate      int
	InitialBufferSize uint64
	Validation        bool
	ClearColor        mgl32.Vec4
}

// FramePacket is what the renderer needs from the scene for one frame.
type FramePacket struct {
	List    scene.DrawList
	View    mgl32.Mat4
	Ambient scene.AmbientLight
	Debug   DebugFeatures
}

type VulkanRenderer struct {
	platform *platform.Platform
	options  Options
	context  *VulkanContext

	layouts   *DescriptorLayouts
	pool      *VulkanDescriptorPool
	bindless  *BindlessTable
	textures  *TextureTable
	staging   *StagingBuffer
	geometry  *GeometryBuffers
	pipelines *PipelineSet
	recorder  *Recorder
	scheduler *FrameScheduler

	frames []*FrameResources
	// One light input set per swapchain image.
	lightSets []vk.DescriptorSet
	// Fence of the slot last rendering into each swapchain image.
	imagesInFlight []*VulkanFence

	ranges  []GeometryRange
	plan    DrawPlan
	lights  LightBuffer
	uniform UniformData

	lightOverflowReported bool
	textureRemapReported  bool
}

func New(p *platform.Platform, options Options) *VulkanRenderer {
	return &VulkanRenderer{
		platform: p,
		options:  options,
		context: &VulkanContext{
			FramebufferWidth:  options.Width,
			FramebufferHeight: options.Height,
			Allocator:         nil,
		},
	}
}

func (vr *VulkanRenderer) Initialize(shaders ShaderCode) error {
	procAddr := vr.platform.GetInstanceProcAddress()
	if procAddr == nil {
		err := fmt.Errorf("GetInstanceProcAddress is nil")
		core.LogError(err.Error())
		return err
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return err
	}

	if err := vr.createInstance(); err != nil {
		return err
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.CreateSurface(vr.context.Instance)
	if err != nil {
		return err
	}
	vr.context.Surface = surface
	core.LogDebug("Vulkan surface created.")

	// Device creation
	if err := DeviceCreate(vr.context, DefaultDeviceRequirements()); err != nil {
		core.LogError("Failed to create device!")
		return err
	}
	commands, err := dynstate.Load(procAddr, unsafe.Pointer(vr.context.Instance), unsafe.Pointer(vr.context.Device.LogicalDevice))
	if err != nil {
		core.LogError("failed to load dynamic state commands: %s", err)
		return err
	}
	vr.context.Dynamic = commands
	vr.context.Locks = NewVulkanLockPool()

	// Swapchain
	width, height := vr.platform.FramebufferSize()
	if width != 0 && height != 0 {
		vr.context.FramebufferWidth, vr.context.FramebufferHeight = width, height
	}
	sc, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	// Depth is cleared to 0: nearer fragments compare greater.
	rp, err := RenderpassCreate(vr.context, vr.options.ClearColor, 0.0, 0)
	if err != nil {
		return err
	}
	vr.context.Renderpass = rp

	if err := vr.context.Swapchain.RegenerateFramebuffers(vr.context, vr.context.Renderpass); err != nil {
		return err
	}

	// Descriptors
	if vr.layouts, err = NewDescriptorLayouts(vr.context, vr.options.MaxTextures); err != nil {
		return err
	}
	// Leave room for light sets of a larger swapchain after recreation.
	maxImages := vr.context.Swapchain.ImageCount * 2
	if vr.pool, err = NewDescriptorPool(vr.context, vr.options.FramesInFlight, maxImages, vr.options.MaxTextures); err != nil {
		return err
	}
	if vr.bindless, err = NewBindlessTable(vr.context, vr.pool, vr.layouts, vr.options.MaxTextures); err != nil {
		return err
	}
	vr.textures = NewTextureTable(vr.options.MaxTextures)
	if err := vr.createLightSets(); err != nil {
		return err
	}

	// Buffers
	vr.staging = &StagingBuffer{}
	if vr.geometry, err = NewGeometryBuffers(vr.context, vr.options.InitialBufferSize); err != nil {
		return err
	}

	// Pipelines
	if vr.pipelines, err = NewPipelineSet(vr.context, vr.context.Renderpass, vr.layouts, shaders); err != nil {
		return err
	}
	vr.recorder = NewRecorder(vr.context, vr.pipelines, vr.geometry, vr.bindless)

	// Frame slots
	vr.frames = make([]*FrameResources, vr.options.FramesInFlight)
	fences := make([]Fence, vr.options.FramesInFlight)
	for i := range vr.frames {
		frame, err := NewFrameResources(vr.context, vr.pool, vr.layouts)
		if err != nil {
			return err
		}
		vr.frames[i] = frame
		fences[i] = frame.Fence
	}
	vr.imagesInFlight = make([]*VulkanFence, vr.context.Swapchain.ImageCount)

	limiter := core.NewFrameLimiter(vr.options.MaxFramerate)
	vr.scheduler = NewFrameScheduler(vr, fences, limiter, NewRetireTable(vr.options.FramesInFlight))

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vr *VulkanRenderer) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 3, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.options.ApplicationName),
		PEngineName:        VulkanSafeString("Volchara Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1
	}

	if vr.options.Validation {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		core.LogDebug("Required extensions: %v", requiredExtensions)
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers.
	requiredLayers := []string{}
	if vr.options.Validation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredLayers = []string{"VK_LAYER_KHRONOS_validation"}

		var availableCount uint32
		if res := vk.EnumerateInstanceLayerProperties(&availableCount, nil); res != vk.Success {
			return fmt.Errorf("failed to count instance layers: %w", VulkanResultToError(res))
		}
		availableLayers := make([]vk.LayerProperties, availableCount)
		if res := vk.EnumerateInstanceLayerProperties(&availableCount, availableLayers); res != vk.Success {
			return fmt.Errorf("failed to list instance layers: %w", VulkanResultToError(res))
		}
		available := make([]string, 0, len(availableLayers))
		for i := range availableLayers {
			availableLayers[i].Deref()
			available = append(available, vk.ToString(availableLayers[i].LayerName[:]))
		}
		if missing := MissingNames(available, requiredLayers); len(missing) > 0 {
			// Validation is a development aid; run without it.
			core.LogWarn("Validation layers missing, continuing without them: %v", missing)
			requiredLayers = nil
		} else {
			core.LogInfo("All required validation layers are present.")
		}
	}

	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &instance); res != vk.Success {
		err := fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	if vr.options.Validation {
		core.LogDebug("Creating Vulkan debugger...")
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
			return err
		}
		vr.context.debugCallback = dbg
		core.LogDebug("Vulkan debugger created.")
	}
	return nil
}

func (vr *VulkanRenderer) createLightSets() error {
	layouts := make([]vk.DescriptorSetLayout, vr.context.Swapchain.ImageCount)
	for i := range layouts {
		layouts[i] = vr.layouts.Light
	}
	sets, err := vr.pool.Allocate(vr.context, layouts)
	if err != nil {
		return err
	}
	for i, set := range sets {
		WriteLightInputs(vr.context, set, vr.context.Swapchain.Attachments[i])
	}
	vr.lightSets = sets
	return nil
}

// Shutdown waits for the device and destroys everything in reverse order of creation.
func (vr *VulkanRenderer) Shutdown() error {
	if vr.context.Device == nil || vr.context.Device.LogicalDevice == nil {
		return nil
	}
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	var errs []error
	if vr.scheduler != nil {
		errs = append(errs, vr.scheduler.Retire().Flush())
	}

	for _, frame := range vr.frames {
		frame.Destroy(vr.context, nil)
	}
	vr.frames = nil

	if vr.pipelines != nil {
		vr.pipelines.Destroy(vr.context)
	}
	if vr.geometry != nil {
		vr.geometry.Destroy(vr.context)
	}
	if vr.staging != nil {
		vr.staging.Destroy(vr.context)
	}
	if vr.textures != nil {
		for _, texture := range vr.textures.Textures() {
			texture.Image.Destroy(vr.context)
		}
	}
	if vr.bindless != nil {
		vr.bindless.Destroy(vr.context)
	}
	// Sets go with the pool.
	if vr.pool != nil {
		vr.pool.Destroy(vr.context)
	}
	vr.lightSets = nil
	if vr.layouts != nil {
		vr.layouts.Destroy(vr.context)
	}

	if vr.context.Swapchain != nil {
		vr.context.Swapchain.SwapchainDestroy(vr.context)
	}
	if vr.context.Renderpass != nil {
		vr.context.Renderpass.RenderpassDestroy(vr.context)
	}

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.context.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugCallback, vr.context.Allocator)
		vr.context.debugCallback = vk.NullDebugReportCallback
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)
	return errors.Join(errs...)
}

// Resized marks the swapchain stale; the next frame rebuilds it.
func (vr *VulkanRenderer) Resized(width, height uint32) {
	vr.context.FramebufferSizeGeneration++
	core.LogInfo("Vulkan renderer backend->resized: w/h/gen: %d/%d/%d", width, height, vr.context.FramebufferSizeGeneration)
	vr.scheduler.RequestResize()
}

// CreateTexture uploads an RGBA8 image and publishes it in the bindless table.
func (vr *VulkanRenderer) CreateTexture(name string, width, height uint32, pixels []byte) (uint32, error) {
	if vr.textures.Len() >= vr.textures.Capacity() {
		err := fmt.Errorf("cannot create texture %q: %w", name, core.ErrTextureCapacity)
		core.LogError(err.Error())
		return 0, err
	}
	image, err := UploadTexture(vr.context, vr.staging, width, height, pixels)
	if err != nil {
		return 0, fmt.Errorf("uploading texture %q: %w", name, err)
	}
	index, err := vr.textures.Publish(&VulkanTexture{Name: name, Image: image}, func(index uint32) error {
		return vr.bindless.Bind(vr.context, index, image.View)
	})
	if err != nil {
		image.Destroy(vr.context)
		return 0, err
	}
	core.LogDebug("texture %q (%dx%d) bound at %d", name, width, height, index)
	return index, nil
}

func (vr *VulkanRenderer) Textures() *TextureTable {
	return vr.textures
}

// UploadScene re-packs the geometry of list into new device buffers. The draw
// lists handed to DrawFrame must keep list's structure until the next upload.
func (vr *VulkanRenderer) UploadScene(list scene.DrawList) error {
	packed := PackGeometry(list)
	if err := vr.geometry.Upload(vr.context, vr.staging, vr.scheduler.Retire(), packed); err != nil {
		return err
	}
	vr.ranges = packed.Ranges
	return nil
}

// DrawFrame runs one frame. prepare is called once the frame cap allows a
// new frame, with the seconds since the previous one; it returns what to draw.
// core.ErrFrameSkipped is returned when the cap has not elapsed.
func (vr *VulkanRenderer) DrawFrame(prepare func(deltaTime float64) (FramePacket, error)) error {
	return vr.scheduler.Frame(func(deltaTime float64) error {
		packet, err := prepare(deltaTime)
		if err != nil {
			return err
		}
		vr.plan = BuildDrawPlan(packet.List, vr.ranges, packet.Debug, vr.textures.Len())
		if vr.plan.Remapped > 0 && !vr.textureRemapReported {
			core.LogWarn("%d material texture indices are not populated, drawing them with texture %d", vr.plan.Remapped, DefaultTextureIndex)
			vr.textureRemapReported = true
		}
		if err := vr.lights.Fill(packet.Ambient, packet.List.Lights()); err != nil && !vr.lightOverflowReported {
			core.LogWarn(err.Error())
			vr.lightOverflowReported = true
		}
		extent := vr.context.Swapchain.Extent
		aspect := float32(extent.Width) / float32(gomath.Max(1, float64(extent.Height)))
		vr.uniform = UniformData{
			View:       packet.View,
			Projection: math.ReversedInfinitePerspective(mgl32.DegToRad(fieldOfView), aspect, nearPlane),
		}
		return nil
	})
}

// FramesPresented is the number of frames handed to the presentation engine.
func (vr *VulkanRenderer) FramesPresented() uint64 {
	return vr.scheduler.Presented()
}

func (vr *VulkanRenderer) Acquire(slot uint32) (uint32, error) {
	return vr.context.Swapchain.AcquireNextImage(vr.context, gomath.MaxUint64, vr.frames[slot].ImageAvailable)
}

func (vr *VulkanRenderer) Record(slot, imageIndex uint32) error {
	frame := vr.frames[slot]
	// Another slot may still render into this image's attachments.
	if previous := vr.imagesInFlight[imageIndex]; previous != nil && previous != frame.Fence {
		if err := previous.Wait(gomath.MaxUint64); err != nil {
			return err
		}
	}
	vr.imagesInFlight[imageIndex] = frame.Fence

	if err := frame.Update(vr.uniform, &vr.lights); err != nil {
		return err
	}
	return vr.recorder.Record(frame, imageIndex, vr.lightSets[imageIndex], vr.plan)
}

func (vr *VulkanRenderer) Submit(slot, imageIndex uint32) error {
	return vr.frames[slot].Submit(vr.context)
}

func (vr *VulkanRenderer) Present(slot, imageIndex uint32) error {
	return vr.context.Swapchain.Present(vr.context, vr.frames[slot].RenderFinished, imageIndex)
}

// Recreate rebuilds the swapchain and everything sized after it. A minimized
// window blocks here until it has an area again.
func (vr *VulkanRenderer) Recreate() error {
	width, height := vr.platform.FramebufferSize()
	for width == 0 || height == 0 {
		if vr.platform.ShouldClose() {
			return nil
		}
		vr.platform.WaitMessages()
		width, height = vr.platform.FramebufferSize()
	}

	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)
	// Everything queued is now safe to release.
	if err := vr.scheduler.Retire().Flush(); err != nil {
		return err
	}

	vr.pool.Free(vr.context, vr.lightSets)
	vr.lightSets = nil

	sc, err := vr.context.Swapchain.SwapchainRecreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc
	if err := sc.RegenerateFramebuffers(vr.context, vr.context.Renderpass); err != nil {
		return err
	}
	if err := vr.createLightSets(); err != nil {
		return err
	}
	vr.imagesInFlight = make([]*VulkanFence, sc.ImageCount)

	vr.context.FramebufferWidth = sc.Extent.Width
	vr.context.FramebufferHeight = sc.Extent.Height
	vr.context.FramebufferSizeLastGeneration = vr.context.FramebufferSizeGeneration
	core.LogInfo("swapchain recreated at %dx%d", sc.Extent.Width, sc.Extent.Height)
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		core.LogDebug("DEBUG: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
